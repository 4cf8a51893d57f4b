// Package api is the request/response client for the tracker's JSON and
// export endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/timetracker/tdash/internal/model"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 15 * time.Second

	sessionCookie  = "session_id"
	clientIDHeader = "X-Client-ID"
)

// Export kinds accepted by /api/export/excel.
const (
	ExportUsers  = "users"
	ExportWeekly = "weekly"
)

// Client talks to one tracker instance.
type Client struct {
	baseURL    *url.URL
	session    string
	clientID   string
	httpClient *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithSession sets the session cookie. A bare value is sent as session_id.
func WithSession(session string) Option {
	return func(c *Client) {
		c.session = strings.TrimSpace(session)
	}
}

// WithClientID sets the X-Client-ID header.
func WithClientID(id string) Option {
	return func(c *Client) {
		c.clientID = id
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the default timeout for HTTP requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a client for the tracker serving dashboardURL. Only the
// scheme and host of the URL are used.
func NewClient(dashboardURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(dashboardURL))
	if err != nil {
		return nil, goerr.Wrap(err, "parsing dashboard url", goerr.V("url", dashboardURL))
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, goerr.New("dashboard url must be absolute", goerr.V("url", dashboardURL))
	}
	c := &Client{
		baseURL: &url.URL{Scheme: u.Scheme, Host: u.Host},
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// The tracker answers unauthenticated requests with a redirect to
			// its login page; surface that instead of following it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns scheme://host of the tracker.
func (c *Client) BaseURL() string { return c.baseURL.String() }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, op, path string, query url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return nil, NewAPIError(op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.session != "" {
		if strings.Contains(c.session, "=") {
			req.Header.Set("Cookie", c.session)
		} else {
			req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
		}
	}
	if c.clientID != "" {
		req.Header.Set(clientIDHeader, c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewAPIError(op, 0, ctx.Err())
		}
		return nil, NewAPIError(op, 0, fmt.Errorf("%w: %v", ErrServerUnavailable, err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, NewAPIError(op, resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		loc := resp.Header.Get("Location")
		resp.Body.Close()
		if strings.Contains(loc, "/login") {
			return nil, NewAPIError(op, resp.StatusCode, ErrUnauthorized)
		}
		return nil, NewAPIError(op, resp.StatusCode, goerr.Wrap(ErrUnexpectedResponse, "redirected", goerr.V("location", loc)))
	case resp.StatusCode == http.StatusBadRequest:
		msg := errorMessage(resp.Body)
		resp.Body.Close()
		return nil, NewAPIError(op, resp.StatusCode, fmt.Errorf("%w: %s", ErrInvalidRequest, msg))
	case resp.StatusCode >= 400:
		msg := errorMessage(resp.Body)
		resp.Body.Close()
		return nil, NewAPIError(op, resp.StatusCode, fmt.Errorf("%w: %s", ErrServerUnavailable, msg))
	}
	return resp, nil
}

// errorMessage extracts {"error": "..."} from a failed response.
func errorMessage(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	resp, err := c.do(ctx, op, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewAPIError(op, resp.StatusCode, goerr.Wrap(ErrUnexpectedResponse, "decoding body", goerr.V("cause", err.Error())))
	}
	return nil
}

// FetchUsers pulls the full user snapshot from /api/users.
func (c *Client) FetchUsers(ctx context.Context) ([]model.User, error) {
	var payload struct {
		Users *[]model.User `json:"users"`
	}
	if err := c.getJSON(ctx, "fetch_users", "/api/users", nil, &payload); err != nil {
		return nil, err
	}
	if payload.Users == nil {
		return nil, NewAPIError("fetch_users", http.StatusOK, goerr.Wrap(ErrUnexpectedResponse, "response has no users list"))
	}
	users := *payload.Users
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// FetchAnalytics reads the server-side analytics block.
func (c *Client) FetchAnalytics(ctx context.Context) (model.Analytics, error) {
	var a model.Analytics
	err := c.getJSON(ctx, "fetch_analytics", "/api/analytics", nil, &a)
	return a, err
}

// FetchWeekly reads the weekly report for the week containing day. A zero
// day asks for the current week.
func (c *Client) FetchWeekly(ctx context.Context, day time.Time) (model.WeeklyReportSet, error) {
	var q url.Values
	if !day.IsZero() {
		q = url.Values{"week": {day.Format("2006-01-02")}}
	}
	var set model.WeeklyReportSet
	err := c.getJSON(ctx, "fetch_weekly", "/api/reports/weekly", q, &set)
	return set, err
}

// Export streams the CSV export of the given kind into w and returns the
// number of bytes written.
func (c *Client) Export(ctx context.Context, kind string, w io.Writer) (int64, error) {
	switch kind {
	case ExportUsers, ExportWeekly:
	default:
		return 0, NewAPIError("export", 0, fmt.Errorf("%w: unknown export type %q", ErrInvalidRequest, kind))
	}
	resp, err := c.do(ctx, "export", "/api/export/excel", url.Values{"type": {kind}})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, NewAPIError("export", resp.StatusCode, err)
	}
	return n, nil
}

// ExportFileName is the name a downloaded export is saved under.
func ExportFileName(kind string, day time.Time) string {
	return fmt.Sprintf("time_tracker_%s_%s.csv", kind, day.Format("2006-01-02"))
}

// SaveExport downloads the export of the given kind to path. A failed
// download leaves no partial file behind.
func (c *Client) SaveExport(ctx context.Context, kind, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return goerr.Wrap(err, "creating download directory", goerr.V("path", path))
	}
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "creating export file", goerr.V("path", path))
	}
	if _, err := c.Export(ctx, kind, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
