package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/config"
	"github.com/timetracker/tdash/internal/logging"
	"github.com/timetracker/tdash/internal/tui/dashboard"
)

type dashboardFlags struct {
	url       string
	bootstrap string
	theme     string
}

func (f *dashboardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "dashboard page URL (overrides dashboard_url)")
	cmd.Flags().StringVar(&f.bootstrap, "bootstrap", "", "JSON file with the initial user list")
}

// apply copies the flags over the loaded config and validates the result.
func (f *dashboardFlags) apply(c *config.Config) error {
	if f.url != "" {
		c.DashboardURL = f.url
	}
	if f.bootstrap != "" {
		c.BootstrapFile = f.bootstrap
	}
	if f.theme != "" {
		c.Theme = f.theme
	}
	return c.Validate()
}

// watchedConfigPath returns the config file to reload from, or "" when
// there is none on disk.
func watchedConfigPath() string {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func newDashboardCmd() *cobra.Command {
	var flags dashboardFlags
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash", "d"},
		Short:   "Open the live dashboard",
		Long: `Open the interactive dashboard for the configured tracker.

The dashboard shows:
- The user table, working users first
- Status and weekly progress charts
- Total users, active users, weekly and monthly hour cards

Logs go to the log file while the dashboard owns the terminal.

Examples:
  tdash dashboard
  tdash dash --url https://tracker.example.com/dashboard`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cfg); err != nil {
				return err
			}
			log, closer, err := fileLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			logging.SetDefault(log)

			opts, err := dashboard.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.Logger = log
			log.Info("Dashboard starting", slog.String("url", cfg.DashboardURL), slog.String("version", Version))
			return dashboard.Run(cmd.Context(), opts, watchedConfigPath())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.theme, "theme", "", "color theme: auto, classic, mocha, latte, nord or plain")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var flags dashboardFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the live feed without a screen, logging every change",
		Long: `Run the dashboard headless. Every table rebuild, row update, summary
and chart change is written to stderr as a log entry.

Examples:
  tdash watch
  tdash watch --log-level debug 2> feed.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cfg); err != nil {
				return err
			}
			opts, err := dashboard.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.Headless = true
			opts.Logger = logging.Default()
			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", cfg.DashboardURL)
			return dashboard.Run(cmd.Context(), opts, watchedConfigPath())
		},
	}
	flags.register(cmd)
	return cmd
}
