// Package dashboard hosts the live user dashboard in a Bubble Tea program.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/timetracker/tdash/internal/api"
	"github.com/timetracker/tdash/internal/config"
	"github.com/timetracker/tdash/internal/feed"
	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/refresh"
	"github.com/timetracker/tdash/internal/render"
	"github.com/timetracker/tdash/internal/safe"
	"github.com/timetracker/tdash/internal/store"
	"github.com/timetracker/tdash/internal/tui/theme"
)

// DefaultBannerDuration is how long transient indicators stay up.
const DefaultBannerDuration = 3 * time.Second

// Options configures the dashboard.
type Options struct {
	DashboardURL     string
	Session          string
	Bootstrap        *Bootstrap
	DownloadDir      string
	Theme            theme.Theme
	Location         *time.Location
	Policy           refresh.Policy
	ReconnectDelay   time.Duration
	BannerDuration   time.Duration
	HandshakeTimeout time.Duration
	ClientID         string
	Logger           *slog.Logger
	// Headless replaces the screen with a log entry per draw.
	Headless bool
}

// OptionsFromConfig builds Options from a loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	boot, err := LoadBootstrap(cfg.BootstrapFile)
	if err != nil {
		return Options{}, err
	}
	opts := Options{
		DashboardURL: cfg.DashboardURL,
		Session:      cfg.SessionCookie,
		Bootstrap:    boot,
		DownloadDir:  cfg.DownloadDir,
		Theme:        theme.FromName(cfg.Theme),
		Location:     cfg.Location(),
		Policy: refresh.Policy{
			Fallback: cfg.FallbackInterval(),
			Periodic: cfg.PeriodicInterval(),
		},
		ReconnectDelay:   cfg.ReconnectDelay(),
		BannerDuration:   cfg.BannerDuration(),
		HandshakeTimeout: cfg.HandshakeTimeout(),
	}
	applyDashboardEnvOverrides(&opts)
	return opts, nil
}

// Stats counts what the dashboard has done since start.
type Stats struct {
	Frames     int
	Malformed  int
	Fetches    int
	Reconnects int
	Exports    int
}

type (
	connectMsg   struct{}
	reconnectMsg struct{}
	dialedMsg    struct {
		conn *feed.Conn
		err  error
	}
	frameMsg struct {
		conn *feed.Conn
		data []byte
	}
	readErrMsg struct {
		conn *feed.Conn
		err  error
	}
	tickMsg struct {
		trigger refresh.Trigger
	}
	fetchedMsg struct {
		trigger refresh.Trigger
		version store.Version
		users   []model.User
		err     error
	}
	clearIndicatorMsg struct {
		gen int
	}
	exportedMsg struct {
		kind string
		path string
		err  error
	}
	panicMsg struct {
		err error
	}
)

// ConfigReloadedMsg carries a config file change into the program.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// KeyMap defines dashboard keybindings.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Refresh      key.Binding
	ExportUsers  key.Binding
	ExportWeekly key.Binding
	Filter       key.Binding
	ClearFilter  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var dashKeys = KeyMap{
	Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	ExportUsers:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export users")),
	ExportWeekly: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "export weekly")),
	Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	ClearFilter:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.ExportUsers, k.ExportWeekly, k.Filter, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Filter, k.ClearFilter},
		{k.Refresh, k.ExportUsers, k.ExportWeekly},
		{k.Help, k.Quit},
	}
}

// Model is the dashboard model.
type Model struct {
	ctx    context.Context
	opts   Options
	ctrl   *Controller
	board  *board
	client *api.Client
	dialer *feed.Dialer
	conn   *feed.Conn
	log    *slog.Logger
	now    func() time.Time

	keys      KeyMap
	help      help.Model
	spinner   spinner.Model
	filter    textinput.Model
	filtering bool

	indicator    *feed.Indicator
	indicatorGen int
	inflight     int
	stats        *Stats

	width  int
	height int
}

// New creates a dashboard model and applies any bootstrap data.
func New(ctx context.Context, opts Options) (Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	page, err := NewPage(opts.DashboardURL, opts.Bootstrap)
	if err != nil {
		return Model{}, err
	}
	if opts.ClientID == "" {
		opts.ClientID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.BannerDuration <= 0 {
		opts.BannerDuration = DefaultBannerDuration
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	if opts.Theme.Name == "" {
		opts.Theme = theme.Plain
	}
	opts.Policy = opts.Policy.Normalize()
	log := opts.Logger.With(slog.String("client_id", opts.ClientID))

	client, err := api.NewClient(opts.DashboardURL,
		api.WithSession(opts.Session),
		api.WithClientID(opts.ClientID))
	if err != nil {
		return Model{}, err
	}
	endpoint, err := feed.EndpointFor(opts.DashboardURL)
	if err != nil {
		return Model{}, err
	}
	dialOpts := []feed.DialOption{feed.WithSession(opts.Session), feed.WithClientID(opts.ClientID)}
	if opts.HandshakeTimeout > 0 {
		dialOpts = append(dialOpts, feed.WithHandshakeTimeout(opts.HandshakeTimeout))
	}

	b := newBoard(opts.Theme)
	var sink render.Sink = b
	if opts.Headless {
		sink = logSink{log: log}
	}
	ctrl := NewController(page, sink, opts.Location, log)
	if opts.ReconnectDelay > 0 {
		ctrl.Conn().ReconnectDelay = opts.ReconnectDelay
	}

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "name, email or status"

	m := Model{
		ctx:     ctx,
		opts:    opts,
		ctrl:    ctrl,
		board:   b,
		client:  client,
		dialer:  feed.NewDialer(endpoint, dialOpts...),
		log:     log,
		now:     time.Now,
		keys:    dashKeys,
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		filter:  fi,
		stats:   &Stats{},
		width:   80,
		height:  24,
	}

	if !page.Active() {
		log.Warn("Dashboard view inactive, live updates disabled", slog.String("url", opts.DashboardURL))
	}
	if err := ctrl.ApplyBootstrap(opts.Bootstrap); err != nil {
		log.Warn("Bootstrap data rejected", slog.Any("error", err))
	}
	return m, nil
}

// Controller returns the update pipeline.
func (m Model) Controller() *Controller { return m.ctrl }

// Stats returns the activity counters.
func (m Model) Stats() Stats { return *m.stats }

// Indicator returns the indicator on screen, or nil.
func (m Model) Indicator() *feed.Indicator { return m.indicator }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		func() tea.Msg { return connectMsg{} },
		m.tick(refresh.Fallback),
		m.tick(refresh.Periodic),
	}
	if !m.opts.Headless {
		cmds = append(cmds, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) tick(t refresh.Trigger) tea.Cmd {
	return tea.Tick(m.opts.Policy.Interval(t), func(time.Time) tea.Msg {
		return tickMsg{trigger: t}
	})
}

// guard runs fn as a command, turning a panic into a logged panicMsg.
func (m Model) guard(where string, fn func() tea.Msg) tea.Cmd {
	ctx := m.logCtx()
	return func() tea.Msg {
		var out tea.Msg
		if err := safe.Call(ctx, where, func() error {
			out = fn()
			return nil
		}); err != nil {
			return panicMsg{err: err}
		}
		return out
	}
}

func (m Model) logCtx() context.Context {
	return logCtx(m.ctx, m.log)
}

// Update implements tea.Model. A panic while handling a message is logged
// and the message is dropped; the dashboard keeps its last state.
func (m Model) Update(msg tea.Msg) (out tea.Model, cmd tea.Cmd) {
	var perr error
	defer func() {
		if perr != nil {
			out, cmd = m, nil
		}
	}()
	defer safe.Recover(m.logCtx(), "dashboard update", &perr)
	return m.update(msg)
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.board.resize(msg.Width, m.tableHeight())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case connectMsg, reconnectMsg:
		if _, ok := msg.(reconnectMsg); ok {
			if !m.ctrl.Conn().ReconnectDue() {
				return m, nil
			}
		} else if !m.ctrl.Conn().BeginConnect() {
			return m, nil
		}
		return m, m.dialCmd()

	case dialedMsg:
		if msg.err != nil {
			ev := feed.CloseEvent{Code: feed.CloseAbnormal, Reason: msg.err.Error()}
			var de *feed.DialError
			if errors.As(msg.err, &de) {
				ev = de.Close
			}
			m.log.Warn("Live channel dial failed", slog.Any("error", msg.err))
			return m.closed(ev)
		}
		m.conn = msg.conn
		eff := m.ctrl.Conn().Opened()
		m.log.Info("Live channel open", slog.String("endpoint", m.dialer.Endpoint()))
		cmd := m.show(eff.Indicator)
		return m, tea.Batch(cmd, m.readCmd(msg.conn))

	case frameMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		m.stats.Frames++
		if err := m.ctrl.ApplyFrame(m.ctrl.Issue(), msg.data); errors.Is(err, feed.ErrMalformed) {
			m.stats.Malformed++
		}
		return m, m.readCmd(msg.conn)

	case readErrMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		ev := feed.CloseFor(msg.err)
		m.log.Info("Live channel closed", slog.Int("code", ev.Code), slog.String("reason", ev.Reason))
		safe.Close(m.logCtx(), m.conn)
		m.conn = nil
		return m.closed(ev)

	case tickMsg:
		next := m.tick(msg.trigger)
		if !m.ctrl.Active() || !refresh.ShouldFetch(msg.trigger, m.ctrl.Conn().IsOpen()) {
			return m, next
		}
		fetch := m.fetchCmd(msg.trigger)
		return m, tea.Batch(next, fetch)

	case fetchedMsg:
		m.inflight--
		if msg.err != nil {
			m.log.Warn("Snapshot fetch failed",
				slog.String("trigger", msg.trigger.String()),
				slog.Any("error", msg.err))
		} else {
			_ = m.ctrl.ApplySnapshot(msg.version, msg.users)
		}
		ind := refresh.Outcome(msg.err)
		cmd := m.show(&ind)
		return m, cmd

	case exportedMsg:
		m.inflight--
		if msg.err != nil {
			m.log.Warn("Export failed", slog.String("kind", msg.kind), slog.Any("error", msg.err))
			cmd := m.show(&feed.Indicator{
				Level: feed.LevelDanger,
				Text:  fmt.Sprintf("Failed to export %s report", msg.kind),
			})
			return m, cmd
		}
		m.stats.Exports++
		m.log.Info("Report exported", slog.String("kind", msg.kind), slog.String("path", msg.path))
		cmd := m.show(&feed.Indicator{
			Level:     feed.LevelSuccess,
			Text:      ExportedText(msg.kind),
			Transient: true,
		})
		return m, cmd

	case clearIndicatorMsg:
		if msg.gen == m.indicatorGen {
			m.indicator = nil
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.reconfigure(msg.Config), nil

	case panicMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.filtering {
		switch msg.Type {
		case tea.KeyEnter:
			m.filtering = false
			m.filter.Blur()
			return m, nil
		case tea.KeyEsc:
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.board.setFilter("")
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.board.setFilter(m.filter.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.closeConn()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refresh):
		if !m.ctrl.Active() {
			return m, nil
		}
		cmd := m.fetchCmd(refresh.Manual)
		return m, cmd
	case key.Matches(msg, m.keys.ExportUsers):
		cmd := m.exportCmd(api.ExportUsers)
		return m, cmd
	case key.Matches(msg, m.keys.ExportWeekly):
		cmd := m.exportCmd(api.ExportWeekly)
		return m, cmd
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.ClearFilter):
		m.filter.SetValue("")
		m.board.setFilter("")
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.board.resize(m.width, m.tableHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.board.table, cmd = m.board.table.Update(msg)
	return m, cmd
}

// closed applies a close event and schedules the reconnect it asks for.
func (m Model) closed(ev feed.CloseEvent) (Model, tea.Cmd) {
	eff := m.ctrl.Conn().Closed(ev)
	if eff.Indicator != nil && eff.Indicator.Text == feed.TextAuthRequired {
		m.log.Warn("Live channel rejected: authentication required")
	}
	cmd := m.show(eff.Indicator)
	if !eff.Reconnect {
		return m, cmd
	}
	m.stats.Reconnects++
	delay := m.ctrl.Conn().ReconnectDelay
	return m, tea.Batch(cmd, tea.Tick(delay, func(time.Time) tea.Msg { return reconnectMsg{} }))
}

// show puts an indicator on screen. Transient indicators clear themselves
// unless replaced first.
func (m *Model) show(ind *feed.Indicator) tea.Cmd {
	if ind == nil {
		return nil
	}
	m.indicator = ind
	m.indicatorGen++
	if !ind.Transient {
		return nil
	}
	gen := m.indicatorGen
	return tea.Tick(m.opts.BannerDuration, func(time.Time) tea.Msg {
		return clearIndicatorMsg{gen: gen}
	})
}

func (m Model) dialCmd() tea.Cmd {
	dialer, ctx := m.dialer, m.ctx
	return m.guard("dial", func() tea.Msg {
		conn, err := dialer.Dial(ctx)
		return dialedMsg{conn: conn, err: err}
	})
}

func (m Model) readCmd(conn *feed.Conn) tea.Cmd {
	return m.guard("read", func() tea.Msg {
		data, err := conn.Read()
		if err != nil {
			return readErrMsg{conn: conn, err: err}
		}
		return frameMsg{conn: conn, data: data}
	})
}

// fetchCmd starts a snapshot fetch. The version is issued now, at request
// start, so a response that lands after a newer update is dropped.
func (m *Model) fetchCmd(trigger refresh.Trigger) tea.Cmd {
	v := m.ctrl.Issue()
	m.stats.Fetches++
	m.inflight++
	client, ctx := m.client, m.ctx
	return m.guard("fetch", func() tea.Msg {
		users, err := client.FetchUsers(ctx)
		return fetchedMsg{trigger: trigger, version: v, users: users, err: err}
	})
}

func (m *Model) exportCmd(kind string) tea.Cmd {
	m.inflight++
	client, ctx := m.client, m.ctx
	path := filepath.Join(m.opts.DownloadDir, api.ExportFileName(kind, m.now()))
	return m.guard("export", func() tea.Msg {
		err := client.SaveExport(ctx, kind, path)
		return exportedMsg{kind: kind, path: path, err: err}
	})
}

// ExportedText is the indicator shown after a successful export.
func ExportedText(kind string) string {
	return cases.Title(language.English).String(kind) + " report exported"
}

func (m *Model) closeConn() {
	if m.conn == nil {
		return
	}
	safe.Close(m.logCtx(), m.conn)
	m.conn = nil
}

func (m Model) reconfigure(cfg *config.Config) Model {
	if cfg == nil {
		return m
	}
	m.opts.Theme = theme.FromName(cfg.Theme)
	m.board.setTheme(m.opts.Theme)
	m.opts.Policy = refresh.Policy{
		Fallback: cfg.FallbackInterval(),
		Periodic: cfg.PeriodicInterval(),
	}.Normalize()
	m.opts.BannerDuration = cfg.BannerDuration()
	m.ctrl.Conn().ReconnectDelay = cfg.ReconnectDelay()
	m.log.Info("Applied config change",
		slog.String("theme", m.opts.Theme.Name),
		slog.Duration("fallback", m.opts.Policy.Fallback),
		slog.Duration("periodic", m.opts.Policy.Periodic))
	return m
}
