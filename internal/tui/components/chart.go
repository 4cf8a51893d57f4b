package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/tui/layout"
	"github.com/timetracker/tdash/internal/tui/theme"
)

const (
	filledChar = "█"
	emptyChar  = "░"
	targetChar = "│"
)

// HoursBar renders a fixed-width bar filled to percent (0-100) in the
// band's color.
func HoursBar(width int, percent float64, band render.Band, t theme.Theme) string {
	if width <= 0 {
		return ""
	}
	percent = math.Max(0, math.Min(100, percent))
	filled := int(math.Round(percent / 100 * float64(width)))

	fill := lipgloss.NewStyle().Foreground(t.ForBand(band))
	empty := lipgloss.NewStyle().Foreground(t.Surface1)
	return fill.Render(strings.Repeat(filledChar, filled)) +
		empty.Render(strings.Repeat(emptyChar, width-filled))
}

// StatusDonut renders the working/offline split as a proportional strip
// followed by one legend line per segment with its tooltip text.
func StatusDonut(c render.StatusChart, width int, t theme.Theme) string {
	if width < 4 {
		width = 4
	}
	if c.Total == 0 {
		return lipgloss.NewStyle().Foreground(t.Overlay).Render("No users")
	}

	working := int(math.Round(float64(c.Working.Count) / float64(c.Total) * float64(width)))
	strip := lipgloss.NewStyle().Foreground(t.Working).Render(strings.Repeat(filledChar, working)) +
		lipgloss.NewStyle().Foreground(t.Offline).Render(strings.Repeat(filledChar, width-working))

	lines := []string{strip}
	for _, seg := range c.Segments() {
		color := t.Offline
		if seg.Label == c.Working.Label {
			color = t.Working
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render("■")+" "+seg.Tooltip())
	}
	return strings.Join(lines, "\n")
}

// ProgressBars renders the weekly progress chart horizontally: one row per
// bar scaled to the chart's axis maximum, with the target marked.
func ProgressBars(c render.ProgressChart, width int, t theme.Theme) string {
	if len(c.Bars) == 0 {
		return lipgloss.NewStyle().Foreground(t.Overlay).
			Render(fmt.Sprintf("No one above %gh this week", render.ProgressThreshold))
	}

	labelW := 0
	for _, b := range c.Bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
	}
	labelW = min(labelW, 12)

	// label, space, bar, space, "99.9h"
	barW := width - labelW - 8
	if barW < 5 {
		barW = 5
	}
	scale := func(v float64) int {
		if c.YMax <= 0 {
			return 0
		}
		return int(math.Round(v / c.YMax * float64(barW)))
	}
	targetAt := scale(c.TargetValue())

	rows := make([]string, 0, len(c.Bars)+1)
	for _, b := range c.Bars {
		n := min(scale(b.Hours), barW)
		var sb strings.Builder
		for i := 0; i < barW; i++ {
			switch {
			case i == targetAt && i >= n:
				sb.WriteString(lipgloss.NewStyle().Foreground(t.Target).Render(targetChar))
			case i < n:
				sb.WriteString(lipgloss.NewStyle().Foreground(t.ForBand(b.Band)).Render(filledChar))
			default:
				sb.WriteString(" ")
			}
		}
		label := padRight(layout.Truncate(b.Label, labelW), labelW)
		rows = append(rows, fmt.Sprintf("%s %s %s", label, sb.String(), render.Hours(b.Hours)))
	}

	axis := fmt.Sprintf("%s 0%s%s", strings.Repeat(" ", labelW),
		strings.Repeat(" ", max(0, barW-1-len(render.TickLabel(c.YMax)))), render.TickLabel(c.YMax))
	rows = append(rows, lipgloss.NewStyle().Foreground(t.Overlay).Render(axis))
	rows = append(rows, lipgloss.NewStyle().Foreground(t.Target).
		Render(fmt.Sprintf("%s %s target %s", strings.Repeat(" ", labelW), targetChar, render.TickLabel(c.TargetValue()))))
	return strings.Join(rows, "\n")
}

func padRight(s string, w int) string {
	if pad := w - lipgloss.Width(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
