package chartpng

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/render"
)

func users() []model.User {
	return []model.User{
		{UserID: "1", Name: "Ann Lee", Email: "a@x.com", IsCurrentlyWorking: true, WeeklyHours: 22},
		{UserID: "2", Name: "Bob Ray", Email: "b@x.com", WeeklyHours: 12.5},
		{UserID: "3", Name: "Cy Doe", Email: "c@x.com", WeeklyHours: 3},
	}
}

func TestStatusDonut(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := StatusDonut(&buf, render.ComputeStatus(users()), Size{Width: 300, Height: 200}); err != nil {
		t.Fatalf("StatusDonut: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 300 || cfg.Height != 200 {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestProgressBars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := ProgressBars(&buf, render.ComputeProgress(users()), Size{}); err != nil {
		t.Fatalf("ProgressBars: %v", err)
	}
	cfg, err := png.DecodeConfig(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Fatalf("size = %dx%d", cfg.Width, cfg.Height)
	}
}

func TestNoData(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := StatusDonut(&buf, render.ComputeStatus(nil), Size{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("donut err = %v", err)
	}
	low := []model.User{{UserID: "1", Name: "Low", WeeklyHours: 4}}
	if err := ProgressBars(&buf, render.ComputeProgress(low), Size{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("progress err = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("wrote output for an empty chart")
	}
}
