package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/tui/theme"
)

// IndicatorColor maps an indicator level to a theme color.
func IndicatorColor(l feed.Level, t theme.Theme) lipgloss.Color {
	switch l {
	case feed.LevelSuccess:
		return t.Success
	case feed.LevelWarning:
		return t.Warning
	default:
		return t.Error
	}
}

// RenderIndicator draws the connection or refresh indicator as a badge.
// A nil indicator renders as "".
func RenderIndicator(ind *feed.Indicator, t theme.Theme) string {
	if ind == nil || ind.Text == "" {
		return ""
	}
	icon := "●"
	switch ind.Level {
	case feed.LevelWarning:
		icon = "▲"
	case feed.LevelDanger:
		icon = "✖"
	}
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(IndicatorColor(ind.Level, t)).
		Padding(0, 1)
	if t.Name == theme.Plain.Name {
		style = style.Reverse(true)
	}
	return style.Render(icon + " " + ind.Text)
}
