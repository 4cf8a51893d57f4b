package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/timetracker/tdash/internal/model"
)

// ProgressThreshold is the weekly hours a user must exceed to be charted.
const ProgressThreshold = 10.0

// ProgressLimit caps the number of bars in the progress chart.
const ProgressLimit = 10

// axisHeadroom is added above the target and the largest bar.
const axisHeadroom = 5.0

// Segment is one slice of the status donut.
type Segment struct {
	Label   string
	Count   int
	Percent float64
	Color   string
}

// Tooltip renders "<label>: <count> (<pct>%)".
func (s Segment) Tooltip() string {
	return fmt.Sprintf("%s: %d (%.1f%%)", s.Label, s.Count, s.Percent)
}

// StatusChart is the working/offline donut.
type StatusChart struct {
	Working Segment
	Offline Segment
	Total   int
}

// Segments returns the two segments in drawing order.
func (s StatusChart) Segments() []Segment {
	return []Segment{s.Working, s.Offline}
}

// ComputeStatus counts working and offline users.
func ComputeStatus(users []model.User) StatusChart {
	total := len(users)
	working := 0
	for _, u := range users {
		if u.IsCurrentlyWorking {
			working++
		}
	}
	pct := func(n int) float64 {
		if total == 0 {
			return 0
		}
		return math.Round(float64(n)/float64(total)*1000) / 10
	}
	return StatusChart{
		Working: Segment{Label: "Working", Count: working, Percent: pct(working), Color: ColorGreen},
		Offline: Segment{Label: "Offline", Count: total - working, Percent: pct(total - working), Color: ColorGray},
		Total:   total,
	}
}

// Bar is one user in the progress chart.
type Bar struct {
	Label string
	Name  string
	Hours float64
	Band  Band
}

// Color returns the bar fill color.
func (b Bar) Color() string { return b.Band.Color() }

// ProgressChart is the weekly progress bar chart with its target overlay.
type ProgressChart struct {
	Bars   []Bar
	Target []float64
	YMax   float64
}

// TargetValue is the constant overlay line value.
func (p ProgressChart) TargetValue() float64 { return model.WeeklyTarget }

// Ticks returns n+1 evenly spaced axis values from 0 to YMax.
func (p ProgressChart) Ticks(n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		out[i] = math.Round(p.YMax*float64(i)/float64(n)*10) / 10
	}
	return out
}

// SelectProgress returns users above ProgressThreshold sorted by weekly
// hours descending, ties in input order, at most ProgressLimit of them.
func SelectProgress(users []model.User) []model.User {
	picked := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.WeeklyHours > ProgressThreshold {
			picked = append(picked, u)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].WeeklyHours > picked[j].WeeklyHours
	})
	if len(picked) > ProgressLimit {
		picked = picked[:ProgressLimit]
	}
	return picked
}

// ComputeProgress builds the chart. The axis maximum is derived from the
// current bars every time.
func ComputeProgress(users []model.User) ProgressChart {
	picked := SelectProgress(users)
	chart := ProgressChart{
		Bars:   make([]Bar, 0, len(picked)),
		Target: make([]float64, len(picked)),
		YMax:   model.WeeklyTarget + axisHeadroom,
	}
	for i, u := range picked {
		chart.Bars = append(chart.Bars, Bar{
			Label: u.FirstName(),
			Name:  u.Name,
			Hours: u.WeeklyHours,
			Band:  BandFor(u.WeeklyHours),
		})
		chart.Target[i] = model.WeeklyTarget
		if top := u.WeeklyHours + axisHeadroom; top > chart.YMax {
			chart.YMax = top
		}
	}
	return chart
}
