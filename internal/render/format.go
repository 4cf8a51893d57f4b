// Package render projects the user list into the dashboard's widgets: the
// user table, the status and progress charts and the summary cards. It is
// pure data; drawing belongs to the widget sinks.
package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/timetracker/tdash/internal/model"
)

// Widget colors.
const (
	ColorGreen  = "#28a745"
	ColorAmber  = "#ffc107"
	ColorRed    = "#dc3545"
	ColorGray   = "#6c757d"
	ColorTarget = "#007bff"
)

// ActivityLayout renders last activity as short month, 2-digit day, hour and minute.
const ActivityLayout = "Jan 02, 03:04 PM"

// Band classifies weekly hours against the target.
type Band int

const (
	BandLow Band = iota
	BandMid
	BandMet
)

// BandFor returns BandMet at or above the weekly target, BandMid at or above
// half of it and BandLow otherwise.
func BandFor(hours float64) Band {
	switch {
	case hours >= model.WeeklyTarget:
		return BandMet
	case hours >= model.WeeklyTarget/2:
		return BandMid
	default:
		return BandLow
	}
}

// Color returns the hex color of the band.
func (b Band) Color() string {
	switch b {
	case BandMet:
		return ColorGreen
	case BandMid:
		return ColorAmber
	default:
		return ColorRed
	}
}

func (b Band) String() string {
	switch b {
	case BandMet:
		return "met"
	case BandMid:
		return "mid"
	default:
		return "low"
	}
}

// BarPercent is the weekly progress bar width, capped at 100.
func BarPercent(hours float64) float64 {
	if hours <= 0 {
		return 0
	}
	p := hours / model.WeeklyTarget * 100
	if p > 100 {
		return 100
	}
	return p
}

// Hours formats an hour total with one decimal and an h suffix.
func Hours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

// OneDecimal formats a total with exactly one decimal.
func OneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Activity formats a timestamp in loc, or "-" when it is unset.
func Activity(ts model.Timestamp, loc *time.Location) string {
	if ts.IsZero() {
		return "-"
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(ActivityLayout)
}

// Duration formats seconds as "3h 25m", or "25m" under an hour.
func Duration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// TickLabel formats an axis value with an h suffix.
func TickLabel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "h"
}
