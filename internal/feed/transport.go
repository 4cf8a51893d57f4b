package feed

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/m-mizutani/goerr/v2"
)

// SessionCookieName is the tracker's session cookie.
const SessionCookieName = "session_id"

// ClientIDHeader identifies this process to the tracker.
const ClientIDHeader = "X-Client-ID"

// DefaultHandshakeTimeout bounds the websocket handshake.
const DefaultHandshakeTimeout = 10 * time.Second

// EndpointFor derives the live channel URL from the dashboard URL: same
// host, path /ws, wss when the dashboard is served over https.
func EndpointFor(dashboardURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(dashboardURL))
	if err != nil {
		return "", goerr.Wrap(err, "parsing dashboard url", goerr.V("url", dashboardURL))
	}
	if u.Host == "" {
		return "", goerr.New("dashboard url has no host", goerr.V("url", dashboardURL))
	}
	scheme := "ws"
	if strings.EqualFold(u.Scheme, "https") || strings.EqualFold(u.Scheme, "wss") {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}).String(), nil
}

// CookieHeader turns a configured session value into a Cookie header.
// A bare value is sent as session_id=<value>.
func CookieHeader(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return ""
	}
	if strings.Contains(session, "=") {
		return session
	}
	return SessionCookieName + "=" + session
}

// Dialer opens live channels.
type Dialer struct {
	endpoint string
	cookie   string
	clientID string
	ws       *websocket.Dialer
}

// DialOption configures a Dialer.
type DialOption func(*Dialer)

// WithSession sets the session cookie sent with the handshake.
func WithSession(session string) DialOption {
	return func(d *Dialer) {
		d.cookie = CookieHeader(session)
	}
}

// WithClientID sets the client id header.
func WithClientID(id string) DialOption {
	return func(d *Dialer) {
		d.clientID = id
	}
}

// WithHandshakeTimeout overrides DefaultHandshakeTimeout.
func WithHandshakeTimeout(timeout time.Duration) DialOption {
	return func(d *Dialer) {
		d.ws.HandshakeTimeout = timeout
	}
}

// NewDialer creates a dialer for the given websocket endpoint.
func NewDialer(endpoint string, opts ...DialOption) *Dialer {
	d := &Dialer{
		endpoint: endpoint,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Endpoint returns the websocket URL.
func (d *Dialer) Endpoint() string { return d.endpoint }

// DialError is a failed dial together with the close it maps to.
type DialError struct {
	Close CloseEvent
	Err   error
}

func (e *DialError) Error() string { return e.Err.Error() }

func (e *DialError) Unwrap() error { return e.Err }

// Dial opens the channel. A handshake refused with 401 or 403 maps to an
// abnormal close with no reason. Other failures carry their error text as
// the reason.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	header := http.Header{}
	if d.cookie != "" {
		header.Set("Cookie", d.cookie)
	}
	if d.clientID != "" {
		header.Set(ClientIDHeader, d.clientID)
	}

	ws, resp, err := d.ws.DialContext(ctx, d.endpoint, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, &DialError{
				Close: CloseEvent{Code: CloseAbnormal},
				Err:   goerr.Wrap(err, "handshake rejected", goerr.V("status", resp.StatusCode)),
			}
		}
		reason := err.Error()
		if resp != nil {
			reason = resp.Status
		}
		return nil, &DialError{
			Close: CloseEvent{Code: CloseAbnormal, Reason: reason},
			Err:   goerr.Wrap(err, "dialing live channel", goerr.V("endpoint", d.endpoint)),
		}
	}
	return &Conn{ws: ws}, nil
}

// Conn is an open live channel.
type Conn struct {
	ws *websocket.Conn
}

// Read blocks for the next text frame.
func (c *Conn) Read() ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal close frame and releases the connection.
func (c *Conn) Close() error {
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

// CloseFor maps a read error to the close event it represents.
func CloseFor(err error) CloseEvent {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return CloseEvent{Code: ce.Code, Reason: ce.Text}
	}
	if err == nil {
		return CloseEvent{Code: websocket.CloseNormalClosure}
	}
	return CloseEvent{Code: CloseAbnormal, Reason: err.Error()}
}
