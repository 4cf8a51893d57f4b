// Package store holds the dashboard's user list, the single source of truth
// the render layer reads from.
//
// A Store is owned by one goroutine (the UI event loop). It is not safe for
// concurrent use.
package store

import (
	"errors"

	"github.com/timetracker/tdash/internal/model"
)

// ErrStale is returned when an update is not newer than the last one applied.
var ErrStale = errors.New("stale update")

// ErrNotList is returned when a full replace is given something other than a list.
var ErrNotList = errors.New("users payload is not a list")

// Version orders updates by the moment they were issued. Zero is never issued.
type Version uint64

// Clock hands out monotonically increasing versions.
type Clock struct {
	last Version
}

// Next returns a version newer than every version handed out before.
func (c *Clock) Next() Version {
	c.last++
	return c.last
}

// Kind identifies which mutation an update performed.
type Kind int

const (
	// KindReplace swapped the whole list.
	KindReplace Kind = iota
	// KindMerge replaced or appended a single record.
	KindMerge
)

// Change describes an applied mutation, so the caller can pick the
// matching render path.
type Change struct {
	Kind     Kind
	Version  Version
	User     model.User // set for KindMerge
	Index    int        // position of the merged record
	Appended bool       // KindMerge added a new record
}

// Store is the dashboard state.
type Store struct {
	users   []model.User
	index   map[string]int
	applied Version
}

// New creates a store seeded with users. Seeding does not consume a version.
func New(users []model.User) *Store {
	s := &Store{}
	s.reset(users)
	return s
}

func (s *Store) reset(users []model.User) {
	s.users = make([]model.User, 0, len(users))
	s.index = make(map[string]int, len(users))
	for _, u := range users {
		key := u.Key()
		if i, ok := s.index[key]; ok {
			// Duplicate keys in one payload: last record wins, first position kept.
			s.users[i] = u
			continue
		}
		s.index[key] = len(s.users)
		s.users = append(s.users, u)
	}
}

func (s *Store) admit(v Version) error {
	if v <= s.applied {
		return ErrStale
	}
	return nil
}

// Replace substitutes the whole user list. users == nil means the payload
// carried no list and is rejected; an empty non-nil slice clears the store.
func (s *Store) Replace(v Version, users []model.User) (Change, error) {
	if users == nil {
		return Change{}, ErrNotList
	}
	if err := s.admit(v); err != nil {
		return Change{}, err
	}
	s.reset(users)
	s.applied = v
	return Change{Kind: KindReplace, Version: v}, nil
}

// Merge replaces the record with the same key in place, or appends it.
func (s *Store) Merge(v Version, u model.User) (Change, error) {
	if err := s.admit(v); err != nil {
		return Change{}, err
	}
	key := u.Key()
	ch := Change{Kind: KindMerge, Version: v, User: u}
	if i, ok := s.index[key]; ok {
		s.users[i] = u
		ch.Index = i
	} else {
		ch.Index = len(s.users)
		ch.Appended = true
		s.index[key] = ch.Index
		s.users = append(s.users, u)
	}
	s.applied = v
	return ch, nil
}

// Users returns a copy of the current list in store order.
func (s *Store) Users() []model.User {
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.users) }

// Applied returns the version of the last applied update.
func (s *Store) Applied() Version { return s.applied }

// Find looks a record up by its merge key.
func (s *Store) Find(key string) (model.User, bool) {
	i, ok := s.index[key]
	if !ok {
		return model.User{}, false
	}
	return s.users[i], true
}

// WorkingCount returns how many users are currently working.
func (s *Store) WorkingCount() int {
	n := 0
	for _, u := range s.users {
		if u.IsCurrentlyWorking {
			n++
		}
	}
	return n
}
