package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestUserDecodeFromServerPayload(t *testing.T) {
	t.Parallel()

	raw := `{"user_id":1,"name":"Ann Lee","email":"a@x.com","is_currently_working":true,
		"weekly_hours":22,"monthly_hours":80,"total_working_time":288000,
		"last_activity":"2024-01-01T09:00:00Z","current_status":"working"}`

	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.UserID != "1" {
		t.Errorf("UserID = %q, want %q", u.UserID, "1")
	}
	if u.Key() != "id:1" {
		t.Errorf("Key() = %q", u.Key())
	}
	if got := u.TotalHours(); got != 80 {
		t.Errorf("TotalHours() = %v, want 80", got)
	}
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if !u.LastActivity.Equal(want) {
		t.Errorf("LastActivity = %v, want %v", u.LastActivity.Time, want)
	}
	if u.FirstName() != "Ann" {
		t.Errorf("FirstName() = %q", u.FirstName())
	}
}

func TestUserIDForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want UserID
	}{
		{`7`, "7"},
		{`"U123"`, "U123"},
		{`null`, ""},
		{`12.0`, "12.0"},
	}
	for _, tt := range tests {
		var id UserID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.in, err)
		}
		if id != tt.want {
			t.Errorf("unmarshal %s = %q, want %q", tt.in, id, tt.want)
		}
	}
}

func TestKeyFallsBackToEmail(t *testing.T) {
	t.Parallel()

	u := User{Email: " Bob@X.com "}
	if got := u.Key(); got != "email:bob@x.com" {
		t.Errorf("Key() = %q", got)
	}
}

func TestTimestampForms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want time.Time
		zero bool
	}{
		{"iso", `"2024-03-05T10:20:30Z"`, time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC), false},
		{"epoch seconds", `1704099600`, time.Unix(1704099600, 0), false},
		{"epoch millis", `1704099600000`, time.UnixMilli(1704099600000), false},
		{"epoch string", `"1704099600"`, time.Unix(1704099600, 0), false},
		{"garbage", `"yesterday"`, time.Time{}, true},
		{"null", `null`, time.Time{}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tt.zero {
				if !ts.IsZero() {
					t.Fatalf("expected zero time, got %v", ts.Time)
				}
				return
			}
			if !ts.Equal(tt.want) {
				t.Fatalf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestComputeAnalytics(t *testing.T) {
	t.Parallel()

	users := []User{
		{UserID: "1", IsCurrentlyWorking: true, WeeklyHours: 20, MonthlyHours: 80, TotalWorkingTime: 7200},
		{UserID: "2", WeeklyHours: 10, MonthlyHours: 40, TotalWorkingTime: 3600},
	}
	a := ComputeAnalytics(users)
	if a.TotalUsers != 2 || a.ActiveUsers != 1 {
		t.Fatalf("users = %d/%d, want 2/1", a.TotalUsers, a.ActiveUsers)
	}
	if a.TotalWeeklyHours != 30 || a.TotalMonthlyHours != 120 {
		t.Fatalf("hours = %v/%v", a.TotalWeeklyHours, a.TotalMonthlyHours)
	}
	if a.TotalWorkingHours != 3 {
		t.Fatalf("TotalWorkingHours = %v, want 3", a.TotalWorkingHours)
	}
	if math.Abs(a.WeeklyCompletion-75) > 1e-9 || math.Abs(a.MonthlyCompletion-75) > 1e-9 {
		t.Fatalf("completion = %v/%v, want 75/75", a.WeeklyCompletion, a.MonthlyCompletion)
	}
}

func TestComputeAnalyticsEmpty(t *testing.T) {
	t.Parallel()

	a := ComputeAnalytics(nil)
	if a != (Analytics{}) {
		t.Fatalf("expected zero analytics, got %+v", a)
	}
}
