package feed

import "time"

// ConnState is the lifecycle state of the live channel.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	AuthDenied
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case AuthDenied:
		return "auth_denied"
	default:
		return "disconnected"
	}
}

// CloseAbnormal is the close code reported when a connection ends without
// a close frame.
const CloseAbnormal = 1006

// DefaultReconnectDelay is how long to wait before the single reconnect
// attempt that follows a close.
const DefaultReconnectDelay = 5 * time.Second

// CloseEvent is the close signal of the live channel.
type CloseEvent struct {
	Code   int
	Reason string
}

// IsAuthRejection reports whether the close means the session was refused:
// an abnormal closure with no reason.
func (e CloseEvent) IsAuthRejection() bool {
	return e.Code == CloseAbnormal && e.Reason == ""
}

// Level is the severity of a connection indicator.
type Level int

const (
	LevelSuccess Level = iota
	LevelWarning
	LevelDanger
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelDanger:
		return "danger"
	default:
		return "success"
	}
}

// Indicator texts.
const (
	TextConnected    = "Connected"
	TextAuthRequired = "Authentication Required"
	TextDisconnected = "Disconnected"
	TextConnError    = "Connection Error"
)

// Indicator is a status message for the connection banner. Transient
// indicators clear themselves; the others stay until replaced.
type Indicator struct {
	Level     Level
	Text      string
	Transient bool
}

// Effect is what the caller must do after a lifecycle event.
type Effect struct {
	Indicator *Indicator
	// Reconnect asks for exactly one reconnect attempt after ReconnectDelay.
	Reconnect bool
}

// Scope reports whether the dashboard view is active. Every Manager entry
// point is a no-op when it is not.
type Scope interface {
	Active() bool
}

// ScopeFunc adapts a function to Scope.
type ScopeFunc func() bool

// Active implements Scope.
func (f ScopeFunc) Active() bool { return f() }

// Manager tracks the channel lifecycle. It performs no I/O: callers report
// transport events and act on the returned Effect.
type Manager struct {
	scope          Scope
	state          ConnState
	ReconnectDelay time.Duration
}

// NewManager creates a manager in the Disconnected state.
func NewManager(scope Scope) *Manager {
	if scope == nil {
		scope = ScopeFunc(func() bool { return true })
	}
	return &Manager{scope: scope, ReconnectDelay: DefaultReconnectDelay}
}

// State returns the current connection state.
func (m *Manager) State() ConnState { return m.state }

// IsOpen reports whether the channel is open.
func (m *Manager) IsOpen() bool { return m.state == Connected }

// BeginConnect moves to Connecting and returns true when a dial should be
// started. It refuses outside the dashboard view, while a channel is open
// or connecting, and after an authentication rejection.
func (m *Manager) BeginConnect() bool {
	if !m.scope.Active() {
		return false
	}
	switch m.state {
	case Connecting, Connected, AuthDenied:
		return false
	}
	m.state = Connecting
	return true
}

// Opened records a successful open.
func (m *Manager) Opened() Effect {
	if !m.scope.Active() {
		return Effect{}
	}
	m.state = Connected
	return Effect{Indicator: &Indicator{Level: LevelSuccess, Text: TextConnected, Transient: true}}
}

// Errored records a transport error. Reconnection is left to the close
// event that follows.
func (m *Manager) Errored() Effect {
	if !m.scope.Active() {
		return Effect{}
	}
	return Effect{Indicator: &Indicator{Level: LevelDanger, Text: TextConnError}}
}

// Closed classifies a close event. An authentication rejection is final;
// any other close asks for one reconnect.
func (m *Manager) Closed(ev CloseEvent) Effect {
	if !m.scope.Active() {
		return Effect{}
	}
	if ev.IsAuthRejection() {
		m.state = AuthDenied
		return Effect{Indicator: &Indicator{Level: LevelWarning, Text: TextAuthRequired}}
	}
	m.state = Disconnected
	return Effect{
		Indicator: &Indicator{Level: LevelDanger, Text: TextDisconnected},
		Reconnect: true,
	}
}

// ReconnectDue is called when the reconnect delay elapses. It returns true
// when a new dial should start.
func (m *Manager) ReconnectDue() bool {
	return m.BeginConnect()
}
