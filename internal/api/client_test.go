package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/timetracker/tdash/internal/feed/feedtest"
	"github.com/timetracker/tdash/internal/model"
)

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(url, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresAbsoluteURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("/dashboard"); err == nil {
		t.Fatal("expected error for relative url")
	}
	c := newTestClient(t, "https://tracker.example.com/dashboard?x=1")
	if c.BaseURL() != "https://tracker.example.com" {
		t.Fatalf("BaseURL = %q", c.BaseURL())
	}
}

func TestFetchUsers(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithUsers([]model.User{feedtest.Ann()}))
	defer srv.Close()

	c := newTestClient(t, srv.DashboardURL())
	users, err := c.FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if len(users) != 1 || users[0].Email != "a@x.com" {
		t.Fatalf("users = %+v", users)
	}
}

func TestFetchUsersEmptyList(t *testing.T) {
	t.Parallel()

	srv := feedtest.New()
	defer srv.Close()

	users, err := newTestClient(t, srv.DashboardURL()).FetchUsers(context.Background())
	if err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	if users == nil || len(users) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", users)
	}
}

func TestFetchUsersRequiresList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":{"id":1}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchUsers(context.Background())
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestUnauthorizedRedirect(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithAuth())
	defer srv.Close()

	_, err := newTestClient(t, srv.DashboardURL()).FetchUsers(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusFound || apiErr.Operation != "fetch_users" {
		t.Fatalf("APIError = %+v", apiErr)
	}

	users, err := newTestClient(t, srv.DashboardURL(), WithSession(feedtest.Session)).FetchUsers(context.Background())
	if err != nil || users == nil {
		t.Fatalf("with session: users=%v err=%v", users, err)
	}
}

func TestUnauthorizedStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchAnalytics(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestServerErrorMessage(t *testing.T) {
	t.Parallel()

	srv := feedtest.New()
	defer srv.Close()
	srv.FailUsers(true)

	_, err := newTestClient(t, srv.DashboardURL()).FetchUsers(context.Background())
	if !IsServerUnavailable(err) {
		t.Fatalf("expected ErrServerUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "Failed to load user data") {
		t.Fatalf("server message lost: %v", err)
	}
}

func TestUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, WithTimeout(2*time.Second)).FetchUsers(context.Background())
	if !IsServerUnavailable(err) {
		t.Fatalf("expected ErrServerUnavailable, got %v", err)
	}
}

func TestSendsSessionAndClientID(t *testing.T) {
	t.Parallel()

	type seen struct{ cookie, id string }
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s seen
		if c, err := r.Cookie("session_id"); err == nil {
			s.cookie = c.Value
		}
		s.id = r.Header.Get("X-Client-ID")
		got <- s
		_, _ = w.Write([]byte(`{"users":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithSession("abc"), WithClientID("cid"))
	if _, err := c.FetchUsers(context.Background()); err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}
	s := <-got
	if s.cookie != "abc" || s.id != "cid" {
		t.Fatalf("cookie=%q id=%q", s.cookie, s.id)
	}
}

func TestFetchAnalytics(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithUsers([]model.User{feedtest.Ann()}))
	defer srv.Close()

	a, err := newTestClient(t, srv.DashboardURL()).FetchAnalytics(context.Background())
	if err != nil {
		t.Fatalf("FetchAnalytics: %v", err)
	}
	if a.TotalUsers != 1 || a.ActiveUsers != 1 || a.TotalWeeklyHours != 22 {
		t.Fatalf("analytics = %+v", a)
	}
}

func TestFetchWeekly(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithUsers([]model.User{feedtest.Ann()}))
	defer srv.Close()

	c := newTestClient(t, srv.DashboardURL())
	set, err := c.FetchWeekly(context.Background(), time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchWeekly: %v", err)
	}
	if set.WeekStart != "2024-01-01" || set.WeekEnd != "2024-01-07" {
		t.Fatalf("week = %s..%s", set.WeekStart, set.WeekEnd)
	}
	if len(set.Reports) != 1 || set.Reports[0].CompletionRate != 110 {
		t.Fatalf("reports = %+v", set.Reports)
	}
}

func TestExport(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithUsers([]model.User{feedtest.Ann()}))
	defer srv.Close()

	c := newTestClient(t, srv.DashboardURL())
	var buf bytes.Buffer
	n, err := c.Export(context.Background(), ExportUsers, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n == 0 || !strings.HasPrefix(buf.String(), "Name,Email,") || !strings.Contains(buf.String(), "a@x.com") {
		t.Fatalf("unexpected export body (%d bytes): %q", n, buf.String())
	}

	if _, err := c.Export(context.Background(), "payroll", &buf); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for unknown kind, got %v", err)
	}
}

func TestSaveExport(t *testing.T) {
	t.Parallel()

	srv := feedtest.New(feedtest.WithUsers([]model.User{feedtest.Ann()}))
	defer srv.Close()

	c := newTestClient(t, srv.DashboardURL())
	dir := filepath.Join(t.TempDir(), "downloads")
	path := filepath.Join(dir, ExportFileName(ExportWeekly, time.Now()))
	if err := c.SaveExport(context.Background(), ExportWeekly, path); err != nil {
		t.Fatalf("SaveExport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.HasPrefix(string(data), "Name,Email,Week Start") {
		t.Fatalf("export file = %q, %v", data, err)
	}

	bad := filepath.Join(dir, "bad.csv")
	if err := c.SaveExport(context.Background(), "payroll", bad); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if _, err := os.Stat(bad); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
}

func TestExportFileName(t *testing.T) {
	t.Parallel()

	got := ExportFileName("weekly", time.Date(2024, 2, 9, 15, 0, 0, 0, time.UTC))
	if got != "time_tracker_weekly_2024-02-09.csv" {
		t.Fatalf("ExportFileName = %q", got)
	}
}
