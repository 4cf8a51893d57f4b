package render

// Recorder is a Sink that keeps the last drawn state and counts draws.
// Headless mode reads it to report changes.
type Recorder struct {
	Rows     []Row
	Summary  Summary
	Status   StatusChart
	Progress ProgressChart

	Rebuilds    int
	RowUpdates  int
	SummaryDraw int
	ChartDraws  int
}

// Draws returns the total number of sink calls.
func (r *Recorder) Draws() int {
	return r.Rebuilds + r.RowUpdates + r.SummaryDraw + r.ChartDraws
}

func (r *Recorder) TableRebuilt(rows []Row) {
	r.Rebuilds++
	r.Rows = append(r.Rows[:0], rows...)
}

func (r *Recorder) RowUpdated(index int, row Row, appended bool) {
	r.RowUpdates++
	if appended || index >= len(r.Rows) {
		r.Rows = append(r.Rows, row)
		return
	}
	r.Rows[index] = row
}

func (r *Recorder) SummaryUpdated(s Summary) {
	r.SummaryDraw++
	r.Summary = s
}

func (r *Recorder) ChartsUpdated(s StatusChart, p ProgressChart) {
	r.ChartDraws++
	r.Status = s
	r.Progress = p
}
