package model

// Analytics aggregates the user list the same way the tracker's
// /api/analytics endpoint does.
type Analytics struct {
	TotalUsers        int     `json:"total_users" yaml:"total_users"`
	ActiveUsers       int     `json:"active_users" yaml:"active_users"`
	TotalWeeklyHours  float64 `json:"total_weekly_hours" yaml:"total_weekly_hours"`
	TotalMonthlyHours float64 `json:"total_monthly_hours" yaml:"total_monthly_hours"`
	AvgWeeklyHours    float64 `json:"avg_weekly_hours" yaml:"avg_weekly_hours"`
	AvgMonthlyHours   float64 `json:"avg_monthly_hours" yaml:"avg_monthly_hours"`
	TotalWorkingHours float64 `json:"total_working_time" yaml:"total_working_time"`
	WeeklyCompletion  float64 `json:"weekly_completion" yaml:"weekly_completion"`
	MonthlyCompletion float64 `json:"monthly_completion" yaml:"monthly_completion"`
}

// ComputeAnalytics derives the analytics block from a user list.
// Completion rates are percentages of WeeklyTarget/MonthlyTarget per user.
func ComputeAnalytics(users []User) Analytics {
	var a Analytics
	var totalSeconds int64
	a.TotalUsers = len(users)
	for _, u := range users {
		if u.IsCurrentlyWorking {
			a.ActiveUsers++
		}
		a.TotalWeeklyHours += u.WeeklyHours
		a.TotalMonthlyHours += u.MonthlyHours
		totalSeconds += u.TotalWorkingTime
	}
	a.TotalWorkingHours = float64(totalSeconds) / 3600
	if a.TotalUsers == 0 {
		return a
	}
	n := float64(a.TotalUsers)
	a.AvgWeeklyHours = a.TotalWeeklyHours / n
	a.AvgMonthlyHours = a.TotalMonthlyHours / n
	a.WeeklyCompletion = a.TotalWeeklyHours / (WeeklyTarget * n) * 100
	a.MonthlyCompletion = a.TotalMonthlyHours / (MonthlyTarget * n) * 100
	return a
}

// WeeklyReport is one row of /api/reports/weekly.
type WeeklyReport struct {
	UserID         UserID    `json:"user_id" yaml:"user_id"`
	Name           string    `json:"name" yaml:"name"`
	Email          string    `json:"email" yaml:"email"`
	WeekStart      Timestamp `json:"week_start" yaml:"week_start"`
	WeekEnd        Timestamp `json:"week_end" yaml:"week_end"`
	TotalHours     float64   `json:"total_hours" yaml:"total_hours"`
	RequiredHours  float64   `json:"required_hours" yaml:"required_hours"`
	CompletionRate float64   `json:"completion_rate" yaml:"completion_rate"`
}

// WeeklyReportSet is the full /api/reports/weekly response.
type WeeklyReportSet struct {
	Reports   []WeeklyReport `json:"reports" yaml:"reports"`
	WeekStart string         `json:"week_start" yaml:"week_start"`
	WeekEnd   string         `json:"week_end" yaml:"week_end"`
}
