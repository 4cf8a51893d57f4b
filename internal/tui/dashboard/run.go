package dashboard

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/timetracker/tdash/internal/config"
)

// Run starts the dashboard and blocks until the user quits or ctx is done.
// When configPath is set, edits to that file are applied while running.
func Run(ctx context.Context, opts Options, configPath string) error {
	m, err := New(ctx, opts)
	if err != nil {
		return err
	}

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Headless {
		progOpts = append(progOpts, tea.WithoutRenderer(), tea.WithInput(nil))
	} else {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, progOpts...)

	if configPath != "" {
		stop, err := config.Watch(configPath, func(cfg *config.Config) {
			p.Send(ConfigReloadedMsg{Config: cfg})
		})
		if err != nil {
			m.log.Warn("Config reload disabled", slog.String("path", configPath), slog.Any("error", err))
		} else {
			defer stop()
		}
	}

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeConn()
		s := fm.Stats()
		fm.log.Info("Dashboard stopped",
			slog.Int("frames", s.Frames),
			slog.Int("malformed", s.Malformed),
			slog.Int("fetches", s.Fetches),
			slog.Int("reconnects", s.Reconnects),
			slog.Int("exports", s.Exports))
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
