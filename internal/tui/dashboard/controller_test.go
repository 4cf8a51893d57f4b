package dashboard

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/feed/feedtest"
	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/store"
)

const annFrame = `{"type":"initial_data","data":{"users":[{"user_id":1,"name":"Ann Lee","email":"a@x.com","is_currently_working":true,"weekly_hours":22,"monthly_hours":80,"total_working_time":288000,"last_activity":"2024-01-01T09:00:00Z"}]}}`

func newTestController(t *testing.T, scope feed.Scope) (*Controller, *render.Recorder, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	rec := &render.Recorder{}
	return NewController(scope, rec, time.UTC, log), rec, &logs
}

func logLines(buf *bytes.Buffer) int {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return 0
	}
	return len(strings.Split(s, "\n"))
}

func TestInitialDataScenario(t *testing.T) {
	t.Parallel()

	c, rec, _ := newTestController(t, nil)
	if err := c.ApplyFrame(c.Issue(), []byte(annFrame)); err != nil {
		t.Fatalf("ApplyFrame: %v", err)
	}

	rows := c.Layer().Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Status != "Working" {
		t.Fatalf("status = %q", rows[0].Status)
	}
	if rows[0].BarPercent != 100 {
		t.Fatalf("bar = %v, want 100", rows[0].BarPercent)
	}
	s := c.Layer().Summary()
	if s.TotalUsers != 1 || s.ActiveUsers != 1 || s.WeeklyHours != "22.0" {
		t.Fatalf("summary = %+v", s)
	}
	if rec.Rebuilds != 1 {
		t.Fatalf("rebuilds = %d, want 1", rec.Rebuilds)
	}
	if c.LastApplied().IsZero() {
		t.Fatal("LastApplied not set")
	}
}

func TestMalformedMessageDoesNotRender(t *testing.T) {
	t.Parallel()

	c, rec, logs := newTestController(t, nil)
	err := c.ApplyFrame(c.Issue(), []byte(`{"type":"single_user_update","data":{}}`))
	if !errors.Is(err, feed.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
	if rec.Draws() != 0 {
		t.Fatalf("draws = %d, want 0", rec.Draws())
	}
	if c.Layer().Rows() != nil && len(c.Layer().Rows()) != 0 {
		t.Fatal("state changed")
	}
	if n := logLines(logs); n != 1 {
		t.Fatalf("log entries = %d, want 1:\n%s", n, logs.String())
	}
}

func TestMissingUsersListIsDiscarded(t *testing.T) {
	t.Parallel()

	c, rec, logs := newTestController(t, nil)
	if err := c.ApplyFrame(c.Issue(), []byte(annFrame)); err != nil {
		t.Fatal(err)
	}
	before := rec.Draws()
	logs.Reset()

	err := c.ApplyFrame(c.Issue(), []byte(`{"type":"user_update","data":{}}`))
	if !errors.Is(err, store.ErrNotList) {
		t.Fatalf("err = %v, want ErrNotList", err)
	}
	if rec.Draws() != before {
		t.Fatal("rejected update was rendered")
	}
	if len(c.Users()) != 1 {
		t.Fatalf("users = %d, want 1", len(c.Users()))
	}
	if n := logLines(logs); n != 1 {
		t.Fatalf("log entries = %d, want 1", n)
	}
}

func TestFullReplaceIsIdempotent(t *testing.T) {
	t.Parallel()

	users := []model.User{feedtest.Ann(), {UserID: "2", Name: "Bob Ray", Email: "b@x.com", WeeklyHours: 12}}

	once, _, _ := newTestController(t, nil)
	if err := once.ApplySnapshot(once.Issue(), users); err != nil {
		t.Fatal(err)
	}

	twice, _, _ := newTestController(t, nil)
	for i := 0; i < 2; i++ {
		if err := twice.ApplySnapshot(twice.Issue(), users); err != nil {
			t.Fatal(err)
		}
	}

	if !reflect.DeepEqual(once.Layer().Rows(), twice.Layer().Rows()) {
		t.Fatal("rows differ after repeated replace")
	}
	if once.Layer().Summary() != twice.Layer().Summary() {
		t.Fatal("summary differs after repeated replace")
	}
	if !reflect.DeepEqual(once.Layer().Progress(), twice.Layer().Progress()) {
		t.Fatal("progress chart differs after repeated replace")
	}
}

func TestEmptyReplaceClears(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestController(t, nil)
	if err := c.ApplyFrame(c.Issue(), []byte(annFrame)); err != nil {
		t.Fatal(err)
	}
	if err := c.ApplyFrame(c.Issue(), []byte(`{"type":"user_update","data":{"users":[]}}`)); err != nil {
		t.Fatal(err)
	}
	if len(c.Layer().Rows()) != 0 {
		t.Fatalf("rows = %d", len(c.Layer().Rows()))
	}
	s := c.Layer().Summary()
	if s.TotalUsers != 0 || s.ActiveUsers != 0 || s.WeeklyHours != "0.0" {
		t.Fatalf("summary = %+v", s)
	}
	if c.Layer().Status().Working.Count != 0 {
		t.Fatal("working count should be 0")
	}
}

func TestSingleUserUpdateMergesInPlace(t *testing.T) {
	t.Parallel()

	c, rec, _ := newTestController(t, nil)
	users := []model.User{feedtest.Ann(), {UserID: "2", Name: "Bob Ray", Email: "b@x.com"}}
	if err := c.ApplySnapshot(c.Issue(), users); err != nil {
		t.Fatal(err)
	}

	update := `{"type":"single_user_update","data":{"user":{"user_id":2,"name":"Bob Ray","email":"b@x.com","is_currently_working":true,"weekly_hours":15}}}`
	if err := c.ApplyFrame(c.Issue(), []byte(update)); err != nil {
		t.Fatal(err)
	}
	if len(c.Users()) != 2 {
		t.Fatalf("users = %d, want 2", len(c.Users()))
	}
	if rec.RowUpdates != 1 || rec.Rebuilds != 1 {
		t.Fatalf("rebuilds=%d rowUpdates=%d", rec.Rebuilds, rec.RowUpdates)
	}
	if got := c.Layer().Summary().ActiveUsers; got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}

	added := `{"type":"single_user_update","data":{"user":{"user_id":3,"name":"Cy Doe","email":"c@x.com"}}}`
	if err := c.ApplyFrame(c.Issue(), []byte(added)); err != nil {
		t.Fatal(err)
	}
	if len(c.Users()) != 3 || len(c.Layer().Rows()) != 3 {
		t.Fatalf("users=%d rows=%d, want 3", len(c.Users()), len(c.Layer().Rows()))
	}
}

func TestStaleSnapshotDropped(t *testing.T) {
	t.Parallel()

	c, rec, _ := newTestController(t, nil)
	fetchVersion := c.Issue() // fetch starts

	if err := c.ApplyFrame(c.Issue(), []byte(annFrame)); err != nil {
		t.Fatal(err)
	}
	draws := rec.Draws()

	// The fetch lands after the newer socket update.
	err := c.ApplySnapshot(fetchVersion, []model.User{})
	if !errors.Is(err, store.ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if len(c.Users()) != 1 || rec.Draws() != draws {
		t.Fatal("stale snapshot changed state")
	}
}

func TestAnalyticsUpdate(t *testing.T) {
	t.Parallel()

	c, rec, _ := newTestController(t, nil)
	if err := c.ApplyFrame(c.Issue(), []byte(`{"type":"analytics_update","data":{"analytics":{"total_users":9}}}`)); err != nil {
		t.Fatal(err)
	}
	if rec.Draws() != 0 {
		t.Fatal("analytics without users must not render")
	}
	if !strings.Contains(string(c.ServerAnalytics()), `"total_users":9`) {
		t.Fatalf("server analytics = %s", c.ServerAnalytics())
	}

	withUsers := `{"type":"analytics_update","data":{"users":[{"user_id":1,"name":"Ann Lee","email":"a@x.com"}],"analytics":{}}}`
	if err := c.ApplyFrame(c.Issue(), []byte(withUsers)); err != nil {
		t.Fatal(err)
	}
	if rec.Rebuilds != 1 || len(c.Users()) != 1 {
		t.Fatalf("rebuilds=%d users=%d", rec.Rebuilds, len(c.Users()))
	}
	// The summary stays local even though the server said 9 users.
	if c.Layer().Summary().TotalUsers != 1 {
		t.Fatalf("summary total = %d", c.Layer().Summary().TotalUsers)
	}
}

func TestUnknownTypeIgnored(t *testing.T) {
	t.Parallel()

	c, rec, logs := newTestController(t, nil)
	if err := c.ApplyFrame(c.Issue(), []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("err = %v", err)
	}
	if rec.Draws() != 0 || logLines(logs) != 1 {
		t.Fatalf("draws=%d logs=%d", rec.Draws(), logLines(logs))
	}
}

func TestInactivePageIsNoop(t *testing.T) {
	t.Parallel()

	c, rec, _ := newTestController(t, feed.ScopeFunc(func() bool { return false }))
	if err := c.ApplyFrame(c.Issue(), []byte(annFrame)); !errors.Is(err, ErrNotDashboard) {
		t.Fatalf("ApplyFrame err = %v", err)
	}
	if err := c.ApplySnapshot(c.Issue(), []model.User{feedtest.Ann()}); !errors.Is(err, ErrNotDashboard) {
		t.Fatalf("ApplySnapshot err = %v", err)
	}
	if rec.Draws() != 0 || len(c.Users()) != 0 {
		t.Fatal("inactive controller changed state")
	}
	if c.Conn().BeginConnect() {
		t.Fatal("inactive controller must not connect")
	}
}

func TestPageActive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		boot *Bootstrap
		want bool
	}{
		{"http://host/dashboard", nil, true},
		{"http://host/dashboard/team", nil, true},
		{"http://host/dashboards", nil, true},
		{"http://host/reports", nil, false},
		{"http://host/", nil, false},
		{"http://host/reports", &Bootstrap{}, true},
	}
	for _, tt := range tests {
		p, err := NewPage(tt.url, tt.boot)
		if err != nil {
			t.Fatalf("NewPage(%q): %v", tt.url, err)
		}
		if got := p.Active(); got != tt.want {
			t.Fatalf("Active(%q, boot=%v) = %v, want %v", tt.url, tt.boot != nil, got, tt.want)
		}
	}
}

func TestLoadBootstrap(t *testing.T) {
	t.Parallel()

	if b, err := LoadBootstrap(""); b != nil || err != nil {
		t.Fatalf("empty path = %v, %v", b, err)
	}

	path := filepath.Join(t.TempDir(), "boot.json")
	if err := os.WriteFile(path, []byte(`{"users":[{"user_id":"7","name":"Dee","email":"d@x.com"}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err := LoadBootstrap(path)
	if err != nil {
		t.Fatalf("LoadBootstrap: %v", err)
	}
	c, _, _ := newTestController(t, nil)
	if err := c.ApplyBootstrap(b); err != nil {
		t.Fatal(err)
	}
	if len(c.Users()) != 1 || c.Users()[0].Name != "Dee" {
		t.Fatalf("users = %+v", c.Users())
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"users":`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBootstrap(bad); err == nil {
		t.Fatal("expected parse error")
	}
}
