// Package feedtest runs an in-process tracker server for tests: the live
// channel at /ws and the JSON/CSV endpoints the dashboard reads.
package feedtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/timetracker/tdash/internal/model"
)

// Session is the cookie value the server accepts when sessions are required.
const Session = "test-session"

// Server is a fake tracker.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	users        []model.User
	requireAuth  bool
	sendInitial  bool
	conns        map[*websocket.Conn]struct{}
	clientIDs    []string
	handshakes   int
	userRequests int
	failUsers    bool
	connected    chan struct{}
	upgrader     websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithUsers seeds the user list.
func WithUsers(users []model.User) Option {
	return func(s *Server) { s.users = users }
}

// WithAuth makes every endpoint require the Session cookie.
func WithAuth() Option {
	return func(s *Server) { s.requireAuth = true }
}

// WithoutInitialData stops the server from pushing initial_data on connect.
func WithoutInitialData() Option {
	return func(s *Server) { s.sendInitial = false }
}

// New starts a server. Close it with Close.
func New(opts ...Option) *Server {
	s := &Server{
		sendInitial: true,
		conns:       make(map[*websocket.Conn]struct{}),
		connected:   make(chan struct{}, 16),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/ws", s.handleWS)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/dashboard", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>dashboard</body></html>"))
		})
		r.Get("/api/users", s.handleUsers)
		r.Get("/api/analytics", s.handleAnalytics)
		r.Get("/api/reports/weekly", s.handleWeekly)
		r.Get("/api/export/excel", s.handleExport)
	})
	s.Server = httptest.NewServer(r)
	return s
}

// DashboardURL is the URL a client should be configured with.
func (s *Server) DashboardURL() string { return s.URL + "/dashboard" }

func (s *Server) authorized(r *http.Request) bool {
	s.mu.Lock()
	required := s.requireAuth
	s.mu.Unlock()
	if !required {
		return true
	}
	c, err := r.Cookie("session_id")
	return err == nil && c.Value == Session
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SetUsers replaces the server-side user list.
func (s *Server) SetUsers(users []model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// FailUsers makes /api/users answer 500 until called with false.
func (s *Server) FailUsers(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUsers = fail
}

// UserRequests returns how many times /api/users was hit.
func (s *Server) UserRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userRequests
}

// Handshakes returns how many /ws upgrades were attempted.
func (s *Server) Handshakes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handshakes
}

// ClientIDs returns the X-Client-ID headers seen on handshakes.
func (s *Server) ClientIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clientIDs...)
}

func (s *Server) snapshot() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.User(nil), s.users...)
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.userRequests++
	fail := s.failUsers
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load user data"})
		return
	}
	users := s.snapshot()
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, model.ComputeAnalytics(s.snapshot()))
}

func weekStart(param string) (time.Time, error) {
	var start time.Time
	if param != "" {
		t, err := time.Parse("2006-01-02", param)
		if err != nil {
			return time.Time{}, err
		}
		start = t
	} else {
		now := time.Now().UTC()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, -1)
	}
	return start, nil
}

func (s *Server) reports(start time.Time) []model.WeeklyReport {
	end := start.AddDate(0, 0, 6)
	users := s.snapshot()
	reports := make([]model.WeeklyReport, 0, len(users))
	for _, u := range users {
		reports = append(reports, model.WeeklyReport{
			UserID:         u.UserID,
			Name:           u.Name,
			Email:          u.Email,
			WeekStart:      model.Timestamp{Time: start},
			WeekEnd:        model.Timestamp{Time: end},
			TotalHours:     u.WeeklyHours,
			RequiredHours:  model.WeeklyTarget,
			CompletionRate: u.WeeklyHours * 100 / model.WeeklyTarget,
		})
	}
	return reports
}

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	start, err := weekStart(r.URL.Query().Get("week"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid week format. Use YYYY-MM-DD"})
		return
	}
	writeJSON(w, http.StatusOK, model.WeeklyReportSet{
		Reports:   s.reports(start),
		WeekStart: start.Format("2006-01-02"),
		WeekEnd:   start.AddDate(0, 0, 6).Format("2006-01-02"),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = "users"
	}
	var rows [][]string
	switch kind {
	case "users":
		rows = append(rows, []string{"Name", "Email", "Total Working Time (hours)", "Weekly Hours", "Monthly Hours", "Last Activity", "Currently Working"})
		for _, u := range s.snapshot() {
			rows = append(rows, []string{
				u.Name, u.Email,
				fmt.Sprintf("%.2f", u.TotalHours()),
				fmt.Sprintf("%.2f", u.WeeklyHours),
				fmt.Sprintf("%.2f", u.MonthlyHours),
				u.LastActivity.Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%t", u.IsCurrentlyWorking),
			})
		}
	case "weekly":
		start, _ := weekStart("")
		rows = append(rows, []string{"Name", "Email", "Week Start", "Week End", "Total Hours", "Required Hours", "Completion Rate (%)"})
		for _, rep := range s.reports(start) {
			rows = append(rows, []string{
				rep.Name, rep.Email,
				rep.WeekStart.Format("2006-01-02"),
				rep.WeekEnd.Format("2006-01-02"),
				fmt.Sprintf("%.2f", rep.TotalHours),
				fmt.Sprintf("%.2f", rep.RequiredHours),
				fmt.Sprintf("%.1f", rep.CompletionRate),
			})
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid report type"})
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_report.csv", kind))
	cw := csv.NewWriter(w)
	_ = cw.WriteAll(rows)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.handshakes++
	if id := r.Header.Get("X-Client-ID"); id != "" {
		s.clientIDs = append(s.clientIDs, id)
	}
	s.mu.Unlock()

	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	initial := s.sendInitial
	s.mu.Unlock()

	if initial {
		users := s.snapshot()
		if users == nil {
			users = []model.User{}
		}
		_ = s.write(conn, map[string]interface{}{
			"type": "initial_data",
			"data": map[string]interface{}{"users": users, "analytics": model.ComputeAnalytics(users)},
		})
	}
	select {
	case s.connected <- struct{}{}:
	default:
	}

	// Drain until the client goes away.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.conns, conn)
			s.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// WaitConnected blocks until a client has connected or the timeout passes.
func (s *Server) WaitConnected(timeout time.Duration) bool {
	select {
	case <-s.connected:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Server) write(conn *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.writeRaw(conn, data)
}

func (s *Server) writeRaw(conn *websocket.Conn, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) each(fn func(*websocket.Conn)) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		fn(c)
	}
}

// PushRaw sends a raw frame to every connected client.
func (s *Server) PushRaw(frame string) {
	s.each(func(c *websocket.Conn) { _ = s.writeRaw(c, []byte(frame)) })
}

// Push sends a typed message to every connected client.
func (s *Server) Push(typ string, data interface{}) {
	msg := map[string]interface{}{"type": typ}
	if data != nil {
		msg["data"] = data
	}
	s.each(func(c *websocket.Conn) { _ = s.write(c, msg) })
}

// CloseClients sends a close frame with the given code and reason.
func (s *Server) CloseClients(code int, reason string) {
	s.each(func(c *websocket.Conn) {
		s.mu.Lock()
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		s.mu.Unlock()
		_ = c.Close()
	})
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Users formats a user list as a data payload.
func Users(users []model.User) map[string]interface{} {
	return map[string]interface{}{"users": users}
}

// Ann is the sample user from the tracker's README scenario.
func Ann() model.User {
	return model.User{
		UserID:             "1",
		Name:               "Ann Lee",
		Email:              "a@x.com",
		IsCurrentlyWorking: true,
		WeeklyHours:        22,
		MonthlyHours:       80,
		TotalWorkingTime:   288000,
		LastActivity:       model.Timestamp{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
	}
}
