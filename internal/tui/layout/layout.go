// Package layout decides how the dashboard uses the terminal width.
package layout

import (
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// Width tiers:
//
//	TierNarrow (<100): cards, table and charts stacked; table shows name,
//	                   status and weekly hours only.
//	TierSplit  (100-159): table beside the charts; adds monthly hours and
//	                      last activity.
//	TierWide   (>=160): every table column including email and total time.
const (
	SplitViewThreshold = 100
	WideViewThreshold  = 160
)

// Tier describes the current width bucket.
type Tier int

const (
	TierNarrow Tier = iota
	TierSplit
	TierWide
)

// TierForWidth maps a terminal width to a tier.
func TierForWidth(width int) Tier {
	switch {
	case width >= WideViewThreshold:
		return TierWide
	case width >= SplitViewThreshold:
		return TierSplit
	default:
		return TierNarrow
	}
}

// Column is a user table column.
type Column int

const (
	ColName Column = iota
	ColEmail
	ColStatus
	ColWeekly
	ColMonthly
	ColTotal
	ColLastActivity
)

// Title returns the column header.
func (c Column) Title() string {
	switch c {
	case ColName:
		return "User"
	case ColEmail:
		return "Email"
	case ColStatus:
		return "Status"
	case ColWeekly:
		return "Weekly"
	case ColMonthly:
		return "Monthly"
	case ColTotal:
		return "Total"
	case ColLastActivity:
		return "Last Activity"
	default:
		return ""
	}
}

// Columns returns the table columns shown at a tier, in display order.
func Columns(t Tier) []Column {
	switch t {
	case TierWide:
		return []Column{ColName, ColEmail, ColStatus, ColWeekly, ColMonthly, ColTotal, ColLastActivity}
	case TierSplit:
		return []Column{ColName, ColStatus, ColWeekly, ColMonthly, ColLastActivity}
	default:
		return []Column{ColName, ColStatus, ColWeekly}
	}
}

// SplitProportions returns table/chart widths for the split view. Below the
// split threshold the table takes the full width and charts stack below.
func SplitProportions(total int) (table int, charts int) {
	if total < SplitViewThreshold {
		return total, total
	}
	// 4 columns of border and padding per panel
	avail := total - 8
	table = int(float64(avail) * 0.6)
	charts = avail - table
	return table, charts
}

// Truncate trims plain text to max cells, ending with "…" when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

// TruncateStyled is Truncate for strings that already carry ANSI styling.
func TruncateStyled(s string, max int) string {
	if max <= 0 {
		return ""
	}
	return truncate.StringWithTail(s, uint(max), "…")
}

// Wrap word-wraps s at width cells.
func Wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
