package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/api"
	"github.com/timetracker/tdash/internal/logging"
	"github.com/timetracker/tdash/internal/tui/dashboard"
)

func newExportCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:       "export <users|weekly>",
		Short:     "Download a CSV report",
		ValidArgs: []string{api.ExportUsers, api.ExportWeekly},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Example: `  tdash export users
  tdash export weekly --dir /tmp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			target := dir
			if target == "" {
				target = cfg.DownloadDir
			}
			path := filepath.Join(target, api.ExportFileName(kind, time.Now().In(cfg.Location())))
			if err := client.SaveExport(cmd.Context(), kind, path); err != nil {
				return fmt.Errorf("failed to export %s report: %w", kind, err)
			}
			logging.Default().Info("Report exported", slog.String("kind", kind), slog.String("path", path))
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dashboard.ExportedText(kind), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "download directory (default download_dir)")
	return cmd
}
