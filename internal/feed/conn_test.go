package feed

import "testing"

func TestCloseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ev        CloseEvent
		wantState ConnState
		reconnect bool
		text      string
	}{
		{"auth rejection", CloseEvent{Code: 1006}, AuthDenied, false, TextAuthRequired},
		{"abnormal with reason", CloseEvent{Code: 1006, Reason: "unexpected EOF"}, Disconnected, true, TextDisconnected},
		{"normal", CloseEvent{Code: 1000}, Disconnected, true, TextDisconnected},
		{"going away", CloseEvent{Code: 1001, Reason: "restart"}, Disconnected, true, TextDisconnected},
		{"policy", CloseEvent{Code: 1008}, Disconnected, true, TextDisconnected},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(nil)
			if !m.BeginConnect() {
				t.Fatal("BeginConnect refused")
			}
			m.Opened()
			eff := m.Closed(tt.ev)
			if m.State() != tt.wantState {
				t.Fatalf("state = %v, want %v", m.State(), tt.wantState)
			}
			if eff.Reconnect != tt.reconnect {
				t.Fatalf("reconnect = %v, want %v", eff.Reconnect, tt.reconnect)
			}
			if eff.Indicator == nil || eff.Indicator.Text != tt.text || eff.Indicator.Transient {
				t.Fatalf("indicator = %+v", eff.Indicator)
			}
		})
	}
}

func TestAuthDeniedIsFinal(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.BeginConnect()
	m.Closed(CloseEvent{Code: CloseAbnormal})
	if m.ReconnectDue() {
		t.Fatal("reconnect allowed after auth rejection")
	}
	if m.BeginConnect() {
		t.Fatal("connect allowed after auth rejection")
	}
}

func TestOpenedShowsTransientSuccess(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.BeginConnect()
	eff := m.Opened()
	if !m.IsOpen() {
		t.Fatal("not open after Opened")
	}
	if eff.Indicator == nil || !eff.Indicator.Transient || eff.Indicator.Level != LevelSuccess || eff.Indicator.Text != TextConnected {
		t.Fatalf("indicator = %+v", eff.Indicator)
	}
}

func TestErroredNeverReconnects(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.BeginConnect()
	eff := m.Errored()
	if eff.Reconnect {
		t.Fatal("error scheduled a reconnect")
	}
	if eff.Indicator == nil || eff.Indicator.Text != TextConnError || eff.Indicator.Level != LevelDanger {
		t.Fatalf("indicator = %+v", eff.Indicator)
	}
}

func TestReconnectGuards(t *testing.T) {
	t.Parallel()

	active := true
	m := NewManager(ScopeFunc(func() bool { return active }))

	if !m.BeginConnect() {
		t.Fatal("first connect refused")
	}
	if m.BeginConnect() {
		t.Fatal("second connect allowed while connecting")
	}
	m.Opened()
	if m.ReconnectDue() {
		t.Fatal("reconnect allowed while open")
	}
	eff := m.Closed(CloseEvent{Code: 1000})
	if !eff.Reconnect {
		t.Fatal("normal close did not ask for reconnect")
	}

	active = false
	if m.ReconnectDue() {
		t.Fatal("reconnect allowed after leaving the dashboard")
	}
	active = true
	if !m.ReconnectDue() {
		t.Fatal("reconnect refused while disconnected on the dashboard")
	}
}

func TestInactiveScopeNoOps(t *testing.T) {
	t.Parallel()

	m := NewManager(ScopeFunc(func() bool { return false }))
	if m.BeginConnect() {
		t.Fatal("connect outside dashboard")
	}
	if eff := m.Closed(CloseEvent{Code: 1000}); eff.Reconnect || eff.Indicator != nil {
		t.Fatalf("close outside dashboard produced %+v", eff)
	}
	if eff := m.Opened(); eff.Indicator != nil {
		t.Fatal("open outside dashboard produced an indicator")
	}
}
