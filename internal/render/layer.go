package render

import (
	"time"

	"github.com/timetracker/tdash/internal/model"
)

// Sink draws widget data. Implementations must not retain the slices.
type Sink interface {
	// TableRebuilt redraws the whole table.
	TableRebuilt(rows []Row)
	// RowUpdated redraws one row without resorting.
	RowUpdated(index int, row Row, appended bool)
	// SummaryUpdated redraws the analytics cards.
	SummaryUpdated(Summary)
	// ChartsUpdated redraws both charts.
	ChartsUpdated(StatusChart, ProgressChart)
}

// Layer owns the widget state and pushes every change to its sink.
type Layer struct {
	table    *Table
	summary  Summary
	status   StatusChart
	progress ProgressChart
	sink     Sink
}

// NewLayer creates a layer drawing to sink. A nil sink discards draws.
func NewLayer(sink Sink, loc *time.Location) *Layer {
	if sink == nil {
		sink = discard{}
	}
	return &Layer{table: NewTable(loc), sink: sink}
}

// SetSink swaps the draw target.
func (l *Layer) SetSink(sink Sink) {
	if sink == nil {
		sink = discard{}
	}
	l.sink = sink
}

// FullRebuild regenerates every widget from users.
func (l *Layer) FullRebuild(users []model.User) {
	l.table.Rebuild(users)
	l.sink.TableRebuilt(l.table.Rows())
	l.derived(users)
}

// SingleUpdate redraws the row for u and recomputes the summary and charts
// from the complete list all.
func (l *Layer) SingleUpdate(u model.User, all []model.User) {
	i, appended := l.table.Upsert(u)
	l.sink.RowUpdated(i, l.table.Rows()[i], appended)
	l.derived(all)
}

func (l *Layer) derived(users []model.User) {
	l.summary = ComputeSummary(users)
	l.status = ComputeStatus(users)
	l.progress = ComputeProgress(users)
	l.sink.SummaryUpdated(l.summary)
	l.sink.ChartsUpdated(l.status, l.progress)
}

// Rows returns the table rows in display order.
func (l *Layer) Rows() []Row { return l.table.Rows() }

// Summary returns the last computed summary.
func (l *Layer) Summary() Summary { return l.summary }

// Status returns the last computed status chart.
func (l *Layer) Status() StatusChart { return l.status }

// Progress returns the last computed progress chart.
func (l *Layer) Progress() ProgressChart { return l.progress }

type discard struct{}

func (discard) TableRebuilt([]Row)                       {}
func (discard) RowUpdated(int, Row, bool)                {}
func (discard) SummaryUpdated(Summary)                   {}
func (discard) ChartsUpdated(StatusChart, ProgressChart) {}
