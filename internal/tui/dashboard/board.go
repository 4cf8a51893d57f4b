package dashboard

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/tui/layout"
	"github.com/timetracker/tdash/internal/tui/theme"
)

const tableBarWidth = 10

// board is the interactive render sink. It keeps the latest widget data and
// projects the rows into a bubbles table.
type board struct {
	rows     []render.Row
	visible  []int
	filter   string
	summary  render.Summary
	status   render.StatusChart
	progress render.ProgressChart

	table table.Model
	tier  layout.Tier
	width int
	theme theme.Theme
	draws int
}

func newBoard(t theme.Theme) *board {
	b := &board{theme: t}
	b.table = table.New(table.WithFocused(true), table.WithHeight(10))
	b.applyStyles()
	b.resize(80, 10)
	return b
}

func (b *board) applyStyles() {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderForeground(b.theme.Surface1).
		Foreground(b.theme.Primary).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(b.theme.Base).
		Background(b.theme.Primary).
		Bold(false)
	if b.theme.Name == theme.Plain.Name {
		s.Selected = s.Selected.Reverse(true)
	}
	b.table.SetStyles(s)
}

func (b *board) setTheme(t theme.Theme) {
	b.theme = t
	b.applyStyles()
}

// resize lays the table out for a width and height.
func (b *board) resize(width, height int) {
	b.width = width
	b.tier = layout.TierForWidth(width)
	tableW, _ := layout.SplitProportions(width)
	b.table.SetColumns(columnsFor(b.tier, tableW))
	b.table.SetWidth(tableW)
	if height > 0 {
		b.table.SetHeight(height)
	}
	b.project()
}

func columnsFor(tier layout.Tier, width int) []table.Column {
	cols := layout.Columns(tier)
	fixed := 0
	for _, c := range cols[1:] {
		fixed += columnWidth(c) + 2
	}
	nameW := max(10, width-fixed-2)

	out := make([]table.Column, len(cols))
	for i, c := range cols {
		w := columnWidth(c)
		if c == layout.ColName {
			w = nameW
		}
		out[i] = table.Column{Title: c.Title(), Width: w}
	}
	return out
}

func columnWidth(c layout.Column) int {
	switch c {
	case layout.ColEmail:
		return 22
	case layout.ColStatus:
		return 8
	case layout.ColWeekly:
		return 7 + tableBarWidth
	case layout.ColMonthly, layout.ColTotal:
		return 8
	case layout.ColLastActivity:
		return 17
	default:
		return 16
	}
}

func (b *board) setFilter(f string) {
	b.filter = strings.ToLower(strings.TrimSpace(f))
	b.project()
}

// selected returns the row under the cursor.
func (b *board) selected() (render.Row, bool) {
	i := b.table.Cursor()
	if i < 0 || i >= len(b.visible) {
		return render.Row{}, false
	}
	return b.rows[b.visible[i]], true
}

func (b *board) matches(r render.Row) bool {
	if b.filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), b.filter) ||
		strings.Contains(strings.ToLower(r.Email), b.filter) ||
		strings.Contains(strings.ToLower(r.Status), b.filter)
}

func (b *board) project() {
	b.visible = b.visible[:0]
	out := make([]table.Row, 0, len(b.rows))
	cols := layout.Columns(b.tier)
	for i, r := range b.rows {
		if !b.matches(r) {
			continue
		}
		b.visible = append(b.visible, i)
		out = append(out, cells(r, cols))
	}
	b.table.SetRows(out)
	if c := b.table.Cursor(); c >= len(out) && len(out) > 0 {
		b.table.SetCursor(len(out) - 1)
	}
}

func cells(r render.Row, cols []layout.Column) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		switch c {
		case layout.ColName:
			dot := "○ "
			if r.Working {
				dot = "● "
			}
			row[i] = dot + r.Name
		case layout.ColEmail:
			row[i] = r.Email
		case layout.ColStatus:
			row[i] = r.Status
		case layout.ColWeekly:
			row[i] = weeklyCell(r)
		case layout.ColMonthly:
			row[i] = r.Monthly
		case layout.ColTotal:
			row[i] = r.Total
		case layout.ColLastActivity:
			row[i] = r.LastActivity
		}
	}
	return row
}

// weeklyCell renders hours followed by a bar capped at the weekly target.
// Table cells are measured as plain text, so the bar carries no color.
func weeklyCell(r render.Row) string {
	filled := int(r.BarPercent/100*tableBarWidth + 0.5)
	filled = min(max(filled, 0), tableBarWidth)
	return padHours(r.Weekly) + " " + strings.Repeat("█", filled) + strings.Repeat("░", tableBarWidth-filled)
}

func padHours(s string) string {
	if len(s) < 6 {
		return strings.Repeat(" ", 6-len(s)) + s
	}
	return s
}

// TableRebuilt implements render.Sink.
func (b *board) TableRebuilt(rows []render.Row) {
	b.draws++
	b.rows = append(b.rows[:0], rows...)
	b.project()
}

// RowUpdated implements render.Sink. The row keeps its position.
func (b *board) RowUpdated(index int, row render.Row, appended bool) {
	b.draws++
	if appended || index >= len(b.rows) {
		b.rows = append(b.rows, row)
	} else {
		b.rows[index] = row
	}
	b.project()
}

// SummaryUpdated implements render.Sink.
func (b *board) SummaryUpdated(s render.Summary) {
	b.draws++
	b.summary = s
}

// ChartsUpdated implements render.Sink.
func (b *board) ChartsUpdated(s render.StatusChart, p render.ProgressChart) {
	b.draws++
	b.status = s
	b.progress = p
}

// logSink is the headless render sink: every draw becomes a log entry.
type logSink struct {
	log *slog.Logger
}

func (s logSink) TableRebuilt(rows []render.Row) {
	s.log.Info("Table rebuilt", slog.Int("rows", len(rows)))
}

func (s logSink) RowUpdated(index int, row render.Row, appended bool) {
	s.log.Info("Row updated",
		slog.Int("index", index),
		slog.String("email", row.Email),
		slog.String("status", row.Status),
		slog.String("weekly", row.Weekly),
		slog.Bool("appended", appended))
}

func (s logSink) SummaryUpdated(sum render.Summary) {
	s.log.Info("Summary",
		slog.Int("total_users", sum.TotalUsers),
		slog.Int("active_users", sum.ActiveUsers),
		slog.String("weekly_hours", sum.WeeklyHours),
		slog.String("monthly_hours", sum.MonthlyHours))
}

func (s logSink) ChartsUpdated(st render.StatusChart, p render.ProgressChart) {
	s.log.Info("Charts",
		slog.String("working", st.Working.Tooltip()),
		slog.String("offline", st.Offline.Tooltip()),
		slog.Int("progress_bars", len(p.Bars)),
		slog.Float64("y_max", p.YMax))
}
