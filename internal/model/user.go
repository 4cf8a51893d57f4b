// Package model defines the records exchanged with the time tracker server.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WeeklyTarget is the number of hours a user is expected to log per week.
const WeeklyTarget = 20.0

// MonthlyTarget is the number of hours a user is expected to log per month.
const MonthlyTarget = 80.0

// UserID is an opaque user identifier. The server sends numbers, but any
// JSON scalar is accepted and compared by its canonical text.
type UserID string

// UnmarshalJSON accepts a JSON number or string.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = UserID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user_id: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// MarshalJSON emits numeric ids as numbers and everything else as strings.
func (id UserID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// User is one row of the dashboard.
type User struct {
	UserID             UserID    `json:"user_id" yaml:"user_id"`
	Name               string    `json:"name" yaml:"name"`
	Email              string    `json:"email" yaml:"email"`
	IsCurrentlyWorking bool      `json:"is_currently_working" yaml:"is_currently_working"`
	CurrentStatus      string    `json:"current_status,omitempty" yaml:"current_status,omitempty"`
	WeeklyHours        float64   `json:"weekly_hours" yaml:"weekly_hours"`
	MonthlyHours       float64   `json:"monthly_hours" yaml:"monthly_hours"`
	TotalWorkingTime   int64     `json:"total_working_time" yaml:"total_working_time"`
	LastActivity       Timestamp `json:"last_activity" yaml:"last_activity"`
}

// Key returns the merge key: the user id, or the email when no id is set.
func (u User) Key() string {
	if u.UserID != "" {
		return "id:" + string(u.UserID)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(u.Email))
}

// TotalHours converts the all-time working seconds into hours.
func (u User) TotalHours() float64 {
	return float64(u.TotalWorkingTime) / 3600
}

// FirstName returns the first whitespace-separated word of the name.
func (u User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// StatusLabel is the text shown in the status column.
func (u User) StatusLabel() string {
	if u.IsCurrentlyWorking {
		return "Working"
	}
	return "Offline"
}

// Timestamp accepts ISO-8601 strings and epoch seconds or milliseconds.
// A value that cannot be parsed is kept as zero; it never rejects the record.
type Timestamp struct {
	time.Time
	Raw string `json:"-" yaml:"-"`
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e11

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a textual timestamp in any supported layout.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(f), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromEpoch(f float64) time.Time {
	if f >= epochMillisThreshold {
		return time.UnixMilli(int64(f))
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*t = Timestamp{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		t.Raw = s
		if parsed, ok := ParseTimestamp(s); ok {
			t.Time = parsed
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		t.Raw = string(data)
		return nil
	}
	t.Raw = string(data)
	t.Time = fromEpoch(f)
	return nil
}

// MarshalJSON writes RFC 3339, or null for an unset timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// MarshalYAML writes RFC 3339, or an empty value for an unset timestamp.
func (t Timestamp) MarshalYAML() (interface{}, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.Time.Format(time.RFC3339), nil
}
