package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	if !d.Pending() {
		t.Fatal("expected pending callback")
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if d.Pending() {
		t.Fatal("still pending after firing")
	}
}

func TestDebouncerCancel(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Cancel()
	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("cancelled callback ran")
	}
	if NewDebouncer(0).Duration() != DefaultDebounceDuration {
		t.Fatal("zero duration should use the default")
	}
}

func TestWatcherReportsWrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")
	other := filepath.Join(dir, "other.toml")
	if err := os.WriteFile(target, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := make(chan []string, 4)
	w, err := New(func(paths []string) { got <- paths }, WithDebounceDuration(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if err := w.Add(target); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := os.WriteFile(other, []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-got:
		if len(paths) != 1 || filepath.Base(paths[0]) != "config.toml" {
			t.Fatalf("paths = %v", paths)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherClosed(t *testing.T) {
	t.Parallel()

	w, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Add(filepath.Join(t.TempDir(), "x")); err != ErrClosed {
		t.Fatalf("Add after close = %v, want ErrClosed", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
