// Package refresh decides when the dashboard pulls a full snapshot.
package refresh

import (
	"time"

	"github.com/timetracker/tdash/internal/feed"
)

// Default intervals.
const (
	DefaultFallbackInterval = 30 * time.Second
	DefaultPeriodicInterval = 120 * time.Second
)

// Indicator texts.
const (
	TextRefreshed     = "Data refreshed"
	TextRefreshFailed = "Failed to refresh data"
)

// Trigger is what asked for a snapshot.
type Trigger int

const (
	// Fallback polls while the live channel is down.
	Fallback Trigger = iota
	// Periodic polls regardless of the channel.
	Periodic
	// Manual is a user-requested refresh.
	Manual
)

func (t Trigger) String() string {
	switch t {
	case Periodic:
		return "periodic"
	case Manual:
		return "manual"
	default:
		return "fallback"
	}
}

// Policy holds the two independent timer intervals.
type Policy struct {
	Fallback time.Duration
	Periodic time.Duration
}

// DefaultPolicy returns the 30s fallback and 120s periodic intervals.
func DefaultPolicy() Policy {
	return Policy{Fallback: DefaultFallbackInterval, Periodic: DefaultPeriodicInterval}
}

// Normalize replaces non-positive intervals with the defaults.
func (p Policy) Normalize() Policy {
	if p.Fallback <= 0 {
		p.Fallback = DefaultFallbackInterval
	}
	if p.Periodic <= 0 {
		p.Periodic = DefaultPeriodicInterval
	}
	return p
}

// Interval returns the timer period for a trigger. Manual has none.
func (p Policy) Interval(t Trigger) time.Duration {
	switch t {
	case Fallback:
		return p.Fallback
	case Periodic:
		return p.Periodic
	default:
		return 0
	}
}

// ShouldFetch reports whether a firing trigger performs a fetch. The
// fallback timer only fetches while the channel is not open.
func ShouldFetch(t Trigger, channelOpen bool) bool {
	if t == Fallback {
		return !channelOpen
	}
	return true
}

// Outcome maps a fetch result to the indicator to show. Success is
// transient; failure stays until replaced.
func Outcome(err error) feed.Indicator {
	if err != nil {
		return feed.Indicator{Level: feed.LevelDanger, Text: TextRefreshFailed}
	}
	return feed.Indicator{Level: feed.LevelSuccess, Text: TextRefreshed, Transient: true}
}
