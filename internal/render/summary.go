package render

import "github.com/timetracker/tdash/internal/model"

// Summary is the four analytics cards.
type Summary struct {
	TotalUsers   int
	ActiveUsers  int
	WeeklyHours  string
	MonthlyHours string
}

// ComputeSummary totals the user list.
func ComputeSummary(users []model.User) Summary {
	a := model.ComputeAnalytics(users)
	return Summary{
		TotalUsers:   a.TotalUsers,
		ActiveUsers:  a.ActiveUsers,
		WeeklyHours:  OneDecimal(a.TotalWeeklyHours),
		MonthlyHours: OneDecimal(a.TotalMonthlyHours),
	}
}
