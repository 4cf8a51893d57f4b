package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/store"
)

// Controller is the single update pipeline: every trigger ends up in one of
// its Apply methods, which mutate the store and then drive the render layer.
// Rejected input never reaches the renderer.
//
// A Controller belongs to the event loop goroutine.
type Controller struct {
	scope feed.Scope
	store *store.Store
	clock store.Clock
	layer *render.Layer
	conn  *feed.Manager
	log   *slog.Logger
	now   func() time.Time

	serverAnalytics json.RawMessage
	lastApplied     time.Time
}

// NewController wires a controller. A nil scope is always active; a nil
// sink discards draws.
func NewController(scope feed.Scope, sink render.Sink, loc *time.Location, log *slog.Logger) *Controller {
	if scope == nil {
		scope = feed.ScopeFunc(func() bool { return true })
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		scope: scope,
		store: store.New(nil),
		layer: render.NewLayer(sink, loc),
		conn:  feed.NewManager(scope),
		log:   log,
		now:   time.Now,
	}
}

// Conn returns the connection manager.
func (c *Controller) Conn() *feed.Manager { return c.conn }

// Layer returns the render layer.
func (c *Controller) Layer() *render.Layer { return c.layer }

// Users returns a copy of the current users.
func (c *Controller) Users() []model.User { return c.store.Users() }

// Active reports whether the dashboard view is active.
func (c *Controller) Active() bool { return c.scope.Active() }

// Issue stamps a new update. Call it when the update is issued: on frame
// receipt or when a fetch starts.
func (c *Controller) Issue() store.Version { return c.clock.Next() }

// ServerAnalytics returns the last analytics block the server pushed.
func (c *Controller) ServerAnalytics() json.RawMessage { return c.serverAnalytics }

// LastApplied returns when state last changed.
func (c *Controller) LastApplied() time.Time { return c.lastApplied }

// ApplyBootstrap seeds state from embedded dashboard data.
func (c *Controller) ApplyBootstrap(b *Bootstrap) error {
	if b == nil {
		return nil
	}
	if len(b.Analytics) > 0 {
		c.keepAnalytics(b.Analytics)
	}
	users := b.Users
	if users == nil {
		users = []model.User{}
	}
	return c.ApplySnapshot(c.Issue(), users)
}

// ApplyFrame decodes a raw live-channel frame and applies it.
func (c *Controller) ApplyFrame(v store.Version, raw []byte) error {
	if !c.scope.Active() {
		return ErrNotDashboard
	}
	msg, err := feed.Decode(raw)
	if err != nil {
		c.log.Warn("Discarded malformed message", slog.Any("error", err))
		return err
	}
	return c.ApplyMessage(v, msg)
}

// ApplyMessage routes a decoded message.
func (c *Controller) ApplyMessage(v store.Version, msg feed.Message) error {
	if !c.scope.Active() {
		return ErrNotDashboard
	}
	switch m := msg.(type) {
	case feed.InitialData:
		c.keepAnalytics(m.Analytics)
		return c.replace(v, m.Users, m.Type())
	case feed.UserUpdate:
		c.keepAnalytics(m.Analytics)
		return c.replace(v, m.Users, m.Type())
	case feed.SingleUserUpdate:
		return c.merge(v, m.User)
	case feed.AnalyticsUpdate:
		c.keepAnalytics(m.Analytics)
		if !m.HasUsers {
			return nil
		}
		return c.replace(v, m.Users, m.Type())
	case feed.Unknown:
		c.log.Warn("Ignored message with unknown type", slog.String("type", m.Kind))
	}
	return nil
}

// ApplySnapshot applies a fetched full user list.
func (c *Controller) ApplySnapshot(v store.Version, users []model.User) error {
	if !c.scope.Active() {
		return ErrNotDashboard
	}
	return c.replace(v, users, "snapshot")
}

func (c *Controller) replace(v store.Version, users []model.User, source string) error {
	if _, err := c.store.Replace(v, users); err != nil {
		c.reject(err, source, v)
		return err
	}
	c.lastApplied = c.now()
	c.layer.FullRebuild(c.store.Users())
	return nil
}

func (c *Controller) merge(v store.Version, u model.User) error {
	ch, err := c.store.Merge(v, u)
	if err != nil {
		c.reject(err, feed.TypeSingleUserUpdate, v)
		return err
	}
	c.lastApplied = c.now()
	c.layer.SingleUpdate(ch.User, c.store.Users())
	return nil
}

func (c *Controller) reject(err error, source string, v store.Version) {
	if errors.Is(err, store.ErrStale) {
		c.log.Debug("Dropped stale update",
			slog.String("source", source),
			slog.Uint64("version", uint64(v)),
			slog.Uint64("applied", uint64(c.store.Applied())))
		return
	}
	c.log.Warn("Discarded update", slog.String("source", source), slog.Any("error", err))
}

// keepAnalytics stores the server analytics block. Nothing renders it yet;
// the summary cards are always derived from the local user list.
func (c *Controller) keepAnalytics(raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	c.serverAnalytics = append(json.RawMessage(nil), raw...)
	var a model.Analytics
	if err := json.Unmarshal(raw, &a); err != nil {
		c.log.Debug("Server analytics not in the expected shape", slog.Any("error", err))
		return
	}
	c.log.Info("Server analytics",
		slog.Int("total_users", a.TotalUsers),
		slog.Int("active_users", a.ActiveUsers),
		slog.Float64("weekly_completion", a.WeeklyCompletion))
}
