// Package components renders the dashboard's building blocks as strings.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/timetracker/tdash/internal/tui/theme"
)

// FreshnessOptions configures freshness indicator rendering.
type FreshnessOptions struct {
	LastUpdate      time.Time     // when data was last applied
	RefreshInterval time.Duration // expected refresh period
	Width           int
	Now             time.Time // zero means time.Now
}

func (o FreshnessOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// IsStale reports whether data is older than twice the refresh interval.
func IsStale(lastUpdate, now time.Time, refreshInterval time.Duration) bool {
	if lastUpdate.IsZero() || refreshInterval <= 0 {
		return false
	}
	return now.Sub(lastUpdate) > 2*refreshInterval
}

// RenderFreshness renders "Updated Xs ago", right-aligned to Width.
// Returns "" before the first update.
func RenderFreshness(opts FreshnessOptions, t theme.Theme) string {
	if opts.LastUpdate.IsZero() {
		return ""
	}
	now := opts.now()

	style := lipgloss.NewStyle().Foreground(t.Overlay)
	text := fmt.Sprintf("Updated %s ago", FormatAge(now.Sub(opts.LastUpdate)))
	if IsStale(opts.LastUpdate, now, opts.RefreshInterval) {
		style = lipgloss.NewStyle().Foreground(t.Warning)
		text += " (stale)"
	}
	out := style.Render(text)

	if w := lipgloss.Width(out); w < opts.Width {
		out = lipgloss.NewStyle().PaddingLeft(opts.Width - w).Render(out)
	}
	return out
}

// FormatAge returns a compact age like "now", "12s", "3m", "2h" or "4d".
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
