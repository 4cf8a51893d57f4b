package feed

import (
	"errors"
	"testing"
)

func TestDecodeRoutesKnownTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, m Message)
	}{
		{
			name:  "initial_data",
			frame: `{"type":"initial_data","data":{"users":[{"user_id":1,"name":"Ann Lee","email":"a@x.com","is_currently_working":true,"weekly_hours":22}]}}`,
			check: func(t *testing.T, m Message) {
				msg, ok := m.(InitialData)
				if !ok {
					t.Fatalf("got %T", m)
				}
				if len(msg.Users) != 1 || msg.Users[0].Name != "Ann Lee" {
					t.Fatalf("users = %+v", msg.Users)
				}
			},
		},
		{
			name:  "user_update with analytics",
			frame: `{"type":"user_update","data":{"users":[],"analytics":{"total_users":0}}}`,
			check: func(t *testing.T, m Message) {
				msg, ok := m.(UserUpdate)
				if !ok {
					t.Fatalf("got %T", m)
				}
				if msg.Users == nil || len(msg.Users) != 0 {
					t.Fatalf("expected empty non-nil users, got %#v", msg.Users)
				}
				if len(msg.Analytics) == 0 {
					t.Fatal("analytics dropped")
				}
			},
		},
		{
			name:  "single_user_update",
			frame: `{"type":"single_user_update","data":{"user":{"user_id":"7","email":"s@x.com"}}}`,
			check: func(t *testing.T, m Message) {
				msg, ok := m.(SingleUserUpdate)
				if !ok {
					t.Fatalf("got %T", m)
				}
				if msg.User.UserID != "7" {
					t.Fatalf("user = %+v", msg.User)
				}
			},
		},
		{
			name:  "analytics_update without users",
			frame: `{"type":"analytics_update","data":{"analytics":{"active_users":3}}}`,
			check: func(t *testing.T, m Message) {
				msg, ok := m.(AnalyticsUpdate)
				if !ok {
					t.Fatalf("got %T", m)
				}
				if msg.HasUsers {
					t.Fatal("HasUsers set without users")
				}
			},
		},
		{
			name:  "analytics_update with users",
			frame: `{"type":"analytics_update","data":{"users":[{"user_id":2}]}}`,
			check: func(t *testing.T, m Message) {
				msg := m.(AnalyticsUpdate)
				if !msg.HasUsers || len(msg.Users) != 1 {
					t.Fatalf("msg = %+v", msg)
				}
			},
		},
		{
			name:  "unknown type",
			frame: `{"type":"heartbeat"}`,
			check: func(t *testing.T, m Message) {
				if u, ok := m.(Unknown); !ok || u.Type() != "heartbeat" {
					t.Fatalf("got %#v", m)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Decode([]byte(tt.frame))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			tt.check(t, m)
		})
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	frames := map[string]string{
		"not json":               `{"type":`,
		"array":                  `[1,2]`,
		"string":                 `"hello"`,
		"no type":                `{"data":{}}`,
		"empty type":             `{"type":""}`,
		"numeric type":           `{"type":5}`,
		"initial without data":   `{"type":"initial_data"}`,
		"update data null":       `{"type":"user_update","data":null}`,
		"single without user":    `{"type":"single_user_update","data":{}}`,
		"single user not object": `{"type":"single_user_update","data":{"user":[1]}}`,
		"users not list":         `{"type":"initial_data","data":{"users":{"a":1}}}`,
		"analytics without data": `{"type":"analytics_update"}`,
		"bad user field":         `{"type":"single_user_update","data":{"user":{"weekly_hours":"lots"}}}`,
	}
	for name, frame := range frames {
		name, frame := name, frame
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			m, err := Decode([]byte(frame))
			if err == nil {
				t.Fatalf("expected error, got %#v", m)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("error %v does not wrap ErrMalformed", err)
			}
		})
	}
}

func TestDecodeMissingUsersYieldsNil(t *testing.T) {
	t.Parallel()

	m, err := Decode([]byte(`{"type":"initial_data","data":{}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.(InitialData).Users != nil {
		t.Fatal("expected nil users so the store rejects the replace")
	}
}
