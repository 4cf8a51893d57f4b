package render

import (
	"sort"
	"strings"
	"time"

	"github.com/timetracker/tdash/internal/model"
)

// Row is one projected table row. Formatting lives here; sorting uses the
// raw fields.
type Row struct {
	Email        string
	Name         string
	Working      bool
	Status       string
	WeeklyHours  float64
	Weekly       string
	BarPercent   float64
	Band         Band
	Monthly      string
	Total        string
	LastActivity string
	Worked       string
}

// RowFor projects a user into a row.
func RowFor(u model.User, loc *time.Location) Row {
	return Row{
		Email:        u.Email,
		Name:         u.Name,
		Working:      u.IsCurrentlyWorking,
		Status:       u.StatusLabel(),
		WeeklyHours:  u.WeeklyHours,
		Weekly:       Hours(u.WeeklyHours),
		BarPercent:   BarPercent(u.WeeklyHours),
		Band:         BandFor(u.WeeklyHours),
		Monthly:      Hours(u.MonthlyHours),
		Total:        Hours(u.TotalHours()),
		LastActivity: Activity(u.LastActivity, loc),
		Worked:       Duration(u.TotalWorkingTime),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Table holds the rows of the user table in display order.
type Table struct {
	rows []Row
	loc  *time.Location
}

// NewTable creates an empty table that formats times in loc.
func NewTable(loc *time.Location) *Table {
	if loc == nil {
		loc = time.Local
	}
	return &Table{loc: loc}
}

// Rebuild clears the table, regenerates every row and applies the default
// order: working users first, otherwise input order.
func (t *Table) Rebuild(users []model.User) {
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, RowFor(u, t.loc))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Working && !rows[j].Working
	})
	t.rows = rows
}

// Upsert replaces the row with the user's email in place, without
// resorting, or appends a new row. It returns the row index.
func (t *Table) Upsert(u model.User) (int, bool) {
	row := RowFor(u, t.loc)
	key := emailKey(u.Email)
	for i := range t.rows {
		if emailKey(t.rows[i].Email) == key {
			t.rows[i] = row
			return i, false
		}
	}
	t.rows = append(t.rows, row)
	return len(t.rows) - 1, true
}

// Rows returns a copy of the rows in display order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }
