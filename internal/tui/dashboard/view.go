package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/tui/components"
	"github.com/timetracker/tdash/internal/tui/layout"
	"github.com/timetracker/tdash/internal/tui/theme"
)

// header, cards, detail, filter and help lines plus borders
const chromeHeight = 14

func (m Model) tableHeight() int {
	h := m.height - chromeHeight
	if m.help.ShowAll {
		h -= 3
	}
	if layout.TierForWidth(m.width) == layout.TierNarrow {
		// charts stack under the table
		h -= 12
	}
	return max(h, 3)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.opts.Headless {
		return ""
	}
	st := theme.NewStyles(m.opts.Theme)

	sections := []string{
		m.renderHeader(st),
		m.renderCards(st),
		m.renderBody(st),
		m.renderDetail(st),
	}
	if m.filtering || m.filter.Value() != "" {
		sections = append(sections, m.filter.View())
	}
	sections = append(sections, st.Help.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(st theme.Styles) string {
	left := st.Header.Render("Time Tracker") + " " + m.renderConnState(st)
	if ind := components.RenderIndicator(m.indicator, m.opts.Theme); ind != "" {
		left += " " + ind
	}
	if m.inflight > 0 {
		left += " " + m.spinner.View()
	}
	right := components.RenderFreshness(components.FreshnessOptions{
		LastUpdate:      m.ctrl.LastApplied(),
		RefreshInterval: m.opts.Policy.Periodic,
		Width:           max(0, m.width-lipgloss.Width(left)),
	}, m.opts.Theme)
	return left + right
}

func (m Model) renderConnState(st theme.Styles) string {
	switch m.ctrl.Conn().State() {
	case feed.Connected:
		return st.Success.Render("live")
	case feed.Connecting:
		return st.Dim.Render("connecting")
	case feed.AuthDenied:
		return st.Warning.Render("auth required")
	default:
		if !m.ctrl.Active() {
			return st.Dim.Render("inactive")
		}
		return st.Error.Render("offline")
	}
}

func (m Model) renderCards(st theme.Styles) string {
	s := m.board.summary
	card := func(value, label string) string {
		w := max(14, (m.width-8)/4-2)
		return st.Card.Width(w).Render(st.CardValue.Render(value) + "\n" + st.CardLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card(fmt.Sprint(s.TotalUsers), "Total Users"),
		card(fmt.Sprint(s.ActiveUsers), "Active Now"),
		card(s.WeeklyHours+"h", "Weekly Hours"),
		card(s.MonthlyHours+"h", "Monthly Hours"),
	)
}

func (m Model) renderBody(st theme.Styles) string {
	_, chartW := layout.SplitProportions(m.width)
	tbl := st.Box.Render(m.board.table.View())

	status := panel(st, "Status", components.StatusDonut(m.board.status, max(10, chartW-4), m.opts.Theme))
	progress := panel(st, "Weekly Progress", components.ProgressBars(m.board.progress, max(20, chartW-4), m.opts.Theme))
	charts := lipgloss.JoinVertical(lipgloss.Left, status, progress)

	if m.board.tier == layout.TierNarrow {
		return lipgloss.JoinVertical(lipgloss.Left, tbl, charts)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tbl, charts)
}

func panel(st theme.Styles, title, body string) string {
	return st.Box.Render(st.BoxTitle.Render(title) + "\n" + body)
}

func (m Model) renderDetail(st theme.Styles) string {
	r, ok := m.board.selected()
	if !ok {
		if len(m.board.rows) == 0 {
			return st.Dim.Render("No users yet")
		}
		return st.Dim.Render("No users match the filter")
	}
	status := st.Offline.Render(r.Status)
	if r.Working {
		status = st.Working.Render(r.Status)
	}
	parts := []string{
		st.Bold.Render(r.Name),
		st.Dim.Render("<" + r.Email + ">"),
		status,
		lipgloss.NewStyle().Foreground(m.opts.Theme.ForBand(r.Band)).Render(r.Weekly) + " this week",
		components.HoursBar(10, r.BarPercent, r.Band, m.opts.Theme),
		"worked " + r.Worked,
		"last active " + r.LastActivity,
	}
	return layout.TruncateStyled(strings.Join(parts, "  "), max(20, m.width))
}
