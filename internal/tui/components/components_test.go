package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/tui/theme"
)

func TestFormatAge(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "now"},
		{12 * time.Second, "12s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
		{50 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		if got := FormatAge(tt.d); got != tt.want {
			t.Fatalf("FormatAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFreshness(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if RenderFreshness(FreshnessOptions{Now: now}, theme.Plain) != "" {
		t.Fatal("no update yet should render empty")
	}

	fresh := RenderFreshness(FreshnessOptions{
		LastUpdate:      now.Add(-10 * time.Second),
		RefreshInterval: 30 * time.Second,
		Now:             now,
		Width:           40,
	}, theme.Plain)
	if !strings.Contains(fresh, "Updated 10s ago") || strings.Contains(fresh, "stale") {
		t.Fatalf("fresh = %q", fresh)
	}
	if lipgloss.Width(fresh) != 40 {
		t.Fatalf("width = %d, want 40", lipgloss.Width(fresh))
	}

	stale := RenderFreshness(FreshnessOptions{
		LastUpdate:      now.Add(-2 * time.Minute),
		RefreshInterval: 30 * time.Second,
		Now:             now,
	}, theme.Plain)
	if !strings.Contains(stale, "(stale)") {
		t.Fatalf("stale = %q", stale)
	}
}

func TestRenderIndicator(t *testing.T) {
	t.Parallel()

	if RenderIndicator(nil, theme.Classic) != "" {
		t.Fatal("nil indicator should render empty")
	}
	got := RenderIndicator(&feed.Indicator{Level: feed.LevelWarning, Text: feed.TextAuthRequired}, theme.Classic)
	if !strings.Contains(got, "Authentication Required") {
		t.Fatalf("indicator = %q", got)
	}
	if IndicatorColor(feed.LevelDanger, theme.Classic) != theme.Classic.Error {
		t.Fatal("danger should map to error color")
	}
}

func TestHoursBarWidth(t *testing.T) {
	t.Parallel()

	for _, pct := range []float64{0, 42, 100, 150} {
		bar := HoursBar(20, pct, render.BandMid, theme.Classic)
		if w := lipgloss.Width(bar); w != 20 {
			t.Fatalf("HoursBar(%v) width = %d", pct, w)
		}
	}
	full := HoursBar(10, 100, render.BandMet, theme.Plain)
	if strings.Count(full, filledChar) != 10 {
		t.Fatalf("full bar = %q", full)
	}
	if HoursBar(0, 50, render.BandLow, theme.Plain) != "" {
		t.Fatal("zero width should be empty")
	}
}

func TestStatusDonut(t *testing.T) {
	t.Parallel()

	users := []model.User{
		{Name: "Ann", IsCurrentlyWorking: true},
		{Name: "Bob"},
		{Name: "Cy"},
	}
	out := StatusDonut(render.ComputeStatus(users), 12, theme.Plain)
	if !strings.Contains(out, "Working: 1 (33.3%)") || !strings.Contains(out, "Offline: 2 (66.7%)") {
		t.Fatalf("donut = %q", out)
	}
	if got := StatusDonut(render.ComputeStatus(nil), 12, theme.Plain); got != "No users" {
		t.Fatalf("empty donut = %q", got)
	}
}

func TestProgressBars(t *testing.T) {
	t.Parallel()

	users := []model.User{
		{Name: "Ann Lee", WeeklyHours: 22},
		{Name: "Bob Ray", WeeklyHours: 12.5},
		{Name: "Cy Doe", WeeklyHours: 4},
	}
	out := ProgressBars(render.ComputeProgress(users), 60, theme.Plain)
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "Ann ") || !strings.HasSuffix(lines[0], "22.0h") {
		t.Fatalf("first row = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Bob ") || !strings.Contains(lines[1], targetChar) {
		t.Fatalf("second row should show the target marker: %q", lines[1])
	}
	if !strings.Contains(lines[3], "target 20h") {
		t.Fatalf("legend = %q", lines[3])
	}

	empty := ProgressBars(render.ComputeProgress(users[2:]), 60, theme.Plain)
	if !strings.Contains(empty, "No one above 10h") {
		t.Fatalf("empty chart = %q", empty)
	}
}
