// Package cli wires the tdash command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/config"
	"github.com/timetracker/tdash/internal/logging"
	"github.com/timetracker/tdash/internal/output"
)

var (
	cfgFile      string
	cfg          *config.Config
	outputFormat string
	logLevel     string

	// Build information, set via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
	BuiltBy = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tdash",
	Short: "Live terminal dashboard for a time tracker",
	Long: `tdash follows a time tracker's live user feed and renders the team
dashboard in the terminal: a user table, status and weekly progress
charts, and the four summary cards.

Quick Start:
  tdash config init                 # Write ~/.config/tdash/config.toml
  tdash dashboard                   # Open the live dashboard
  tdash snapshot -o json            # Print the current user list
  tdash export users                # Download the users CSV report`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if canSkipConfigLoading(cmd) {
			return nil
		}
		loaded, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		return setupLogging(cmd.ErrOrStderr(), cfg)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/tdash/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json or yaml (default text on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newDashboardCmd(),
		newWatchCmd(),
		newSnapshotCmd(),
		newExportCmd(),
		newSummaryCmd(),
		newWeeklyCmd(),
		newChartsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
}

// canSkipConfigLoading reports whether cmd runs without a config.
func canSkipConfigLoading(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "path", "init", "help", "completion":
		return true
	}
	return false
}

// setupLogging installs the process logger for one-shot commands: console
// output on stderr. The dashboard replaces it with a file logger.
func setupLogging(w io.Writer, c *config.Config) error {
	l, err := logging.New(logging.Options{
		Level:  c.Log.Level,
		Format: logging.FormatConsole,
		Writer: w,
		Color:  output.ColorEnabled(w),
	})
	if err != nil {
		return err
	}
	logging.SetDefault(l)
	return nil
}

// fileLogger opens the configured log file for a program that owns the
// terminal. The returned closer must be called on exit.
func fileLogger(c *config.Config) (*slog.Logger, io.Closer, error) {
	path := c.Log.File
	if path == "" {
		path = config.DefaultLogPath()
	}
	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	format := logging.Format(c.Log.Format)
	if format == "" || format == logging.FormatConsole {
		format = logging.FormatJSON
	}
	l, err := logging.New(logging.Options{Level: c.Log.Level, Format: format, Writer: f})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

// formatter returns the output formatter for cmd.
func formatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.DetectFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.New(output.WithFormat(format), output.WithWriter(cmd.OutOrStdout())), nil
}

type versionResult struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuiltAt   string `json:"built_at" yaml:"built_at"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func (v versionResult) Text(w io.Writer) error {
	fmt.Fprintf(w, "tdash version %s\n", v.Version)
	fmt.Fprintf(w, "  commit:    %s\n", v.Commit)
	fmt.Fprintf(w, "  built:     %s\n", v.BuiltAt)
	fmt.Fprintf(w, "  builder:   %s\n", v.BuiltBy)
	fmt.Fprintf(w, "  go:        %s\n", v.GoVersion)
	_, err := fmt.Fprintf(w, "  platform:  %s\n", v.Platform)
	return err
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			return f.Output(versionResult{
				Version:   Version,
				Commit:    Commit,
				BuiltAt:   Date,
				BuiltBy:   BuiltBy,
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefault(cfgFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	})

	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Print(cfg, cmd.OutOrStdout(), !reveal)
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "print the session cookie unmasked")
	cmd.AddCommand(show)
	return cmd
}
