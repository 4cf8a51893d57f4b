package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/chartpng"
	"github.com/timetracker/tdash/internal/render"
)

// Chart file names written by the charts command.
const (
	StatusChartFile   = "status.png"
	ProgressChartFile = "weekly_progress.png"
)

func writeChart(path string, draw func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func newChartsCmd() *cobra.Command {
	var (
		out  string
		size chartpng.Size
	)
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Save the status and weekly progress charts as PNG",
		Example: `  tdash charts
  tdash charts --out /tmp/charts --width 800 --height 500`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			users, err := client.FetchUsers(cmd.Context())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return err
			}

			status := render.ComputeStatus(users)
			progress := render.ComputeProgress(users)
			charts := []struct {
				name string
				draw func(io.Writer) error
			}{
				{StatusChartFile, func(w io.Writer) error { return chartpng.StatusDonut(w, status, size) }},
				{ProgressChartFile, func(w io.Writer) error { return chartpng.ProgressBars(w, progress, size) }},
			}
			for _, c := range charts {
				path := filepath.Join(out, c.name)
				err := writeChart(path, c.draw)
				switch {
				case errors.Is(err, chartpng.ErrNoData):
					fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s: nothing to draw\n", c.name)
				case err != nil:
					return fmt.Errorf("writing %s: %w", c.name, err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", ".", "output directory")
	cmd.Flags().IntVar(&size.Width, "width", chartpng.DefaultWidth, "image width in pixels")
	cmd.Flags().IntVar(&size.Height, "height", chartpng.DefaultHeight, "image height in pixels")
	return cmd
}
