// Package feed owns the live channel to the tracker: decoding pushed
// messages, classifying disconnects and deciding when to reconnect.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"github.com/timetracker/tdash/internal/model"
)

// Message types sent by the tracker.
const (
	TypeInitialData      = "initial_data"
	TypeUserUpdate       = "user_update"
	TypeSingleUserUpdate = "single_user_update"
	TypeAnalyticsUpdate  = "analytics_update"
)

var (
	// ErrMalformed marks an inbound message that was discarded.
	ErrMalformed = errors.New("malformed message")
)

// Message is one decoded push from the tracker. The set of implementations
// is closed: InitialData, UserUpdate, SingleUserUpdate, AnalyticsUpdate and
// Unknown.
type Message interface {
	Type() string
	isMessage()
}

// InitialData is the snapshot sent when the channel opens.
type InitialData struct {
	// Users is nil when the payload had no users list.
	Users []model.User
	// Analytics is the optional server-side analytics block.
	Analytics json.RawMessage
}

// UserUpdate carries a refreshed full user list.
type UserUpdate struct {
	Users     []model.User
	Analytics json.RawMessage
}

// SingleUserUpdate carries one changed user.
type SingleUserUpdate struct {
	User model.User
}

// AnalyticsUpdate carries server analytics and optionally a full user list.
type AnalyticsUpdate struct {
	Users     []model.User
	HasUsers  bool
	Analytics json.RawMessage
}

// Unknown is a well-formed message with a type this client does not handle.
type Unknown struct {
	Kind string
}

func (InitialData) Type() string      { return TypeInitialData }
func (UserUpdate) Type() string       { return TypeUserUpdate }
func (SingleUserUpdate) Type() string { return TypeSingleUserUpdate }
func (AnalyticsUpdate) Type() string  { return TypeAnalyticsUpdate }
func (u Unknown) Type() string        { return u.Kind }

func (InitialData) isMessage()      {}
func (UserUpdate) isMessage()       {}
func (SingleUserUpdate) isMessage() {}
func (AnalyticsUpdate) isMessage()  {}
func (Unknown) isMessage()          {}

// Decode validates and routes a raw frame. Every returned error wraps
// ErrMalformed; the caller logs it and leaves state untouched.
func Decode(raw []byte) (Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) {
		return nil, goerr.Wrap(ErrMalformed, "message is not valid JSON", goerr.V("size", len(raw)))
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, goerr.Wrap(ErrMalformed, "message is not an object")
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, goerr.Wrap(ErrMalformed, "decoding envelope", goerr.V("cause", err.Error()))
	}

	var typ string
	if rawType, ok := env["type"]; !ok || json.Unmarshal(rawType, &typ) != nil || typ == "" {
		return nil, goerr.Wrap(ErrMalformed, "message has no type")
	}

	switch typ {
	case TypeInitialData, TypeUserUpdate:
		data, err := objectField(env, "data", typ)
		if err != nil {
			return nil, err
		}
		users, _, err := usersField(data, typ)
		if err != nil {
			return nil, err
		}
		if typ == TypeInitialData {
			return InitialData{Users: users, Analytics: data["analytics"]}, nil
		}
		return UserUpdate{Users: users, Analytics: data["analytics"]}, nil

	case TypeSingleUserUpdate:
		data, err := objectField(env, "data", typ)
		if err != nil {
			return nil, err
		}
		rawUser, err := objectRaw(data, "user", typ)
		if err != nil {
			return nil, err
		}
		var u model.User
		if err := json.Unmarshal(rawUser, &u); err != nil {
			return nil, goerr.Wrap(ErrMalformed, "decoding data.user", goerr.V("type", typ), goerr.V("cause", err.Error()))
		}
		return SingleUserUpdate{User: u}, nil

	case TypeAnalyticsUpdate:
		data, err := objectField(env, "data", typ)
		if err != nil {
			return nil, err
		}
		users, present, err := usersField(data, typ)
		if err != nil {
			return nil, err
		}
		return AnalyticsUpdate{Users: users, HasUsers: present && users != nil, Analytics: data["analytics"]}, nil

	default:
		return Unknown{Kind: typ}, nil
	}
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func objectRaw(obj map[string]json.RawMessage, field, typ string) (json.RawMessage, error) {
	raw, ok := obj[field]
	if !ok || isNull(raw) {
		return nil, goerr.Wrap(ErrMalformed, "missing "+field, goerr.V("type", typ))
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] != '{' {
		return nil, goerr.Wrap(ErrMalformed, field+" is not an object", goerr.V("type", typ))
	}
	return raw, nil
}

func objectField(obj map[string]json.RawMessage, field, typ string) (map[string]json.RawMessage, error) {
	raw, err := objectRaw(obj, field, typ)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, goerr.Wrap(ErrMalformed, "decoding "+field, goerr.V("type", typ), goerr.V("cause", err.Error()))
	}
	return out, nil
}

// usersField decodes data.users. A missing or null list yields nil users and
// no error so the store can reject it; a list of the wrong shape is malformed.
func usersField(data map[string]json.RawMessage, typ string) ([]model.User, bool, error) {
	raw, ok := data["users"]
	if !ok || isNull(raw) {
		return nil, ok, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] != '[' {
		return nil, true, goerr.Wrap(ErrMalformed, "data.users is not a list", goerr.V("type", typ))
	}
	users := []model.User{}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, true, goerr.Wrap(ErrMalformed, "decoding data.users", goerr.V("type", typ), goerr.V("cause", err.Error()))
	}
	return users, true, nil
}
