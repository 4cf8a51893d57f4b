package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/output"
	"github.com/timetracker/tdash/internal/render"
)

type weeklyResult struct {
	model.WeeklyReportSet `yaml:",inline"`
}

func (r weeklyResult) Text(w io.Writer) error {
	fmt.Fprintf(w, "Week %s to %s\n\n", r.WeekStart, r.WeekEnd)
	t := output.NewTable(w, "NAME", "EMAIL", "HOURS", "REQUIRED", "COMPLETION")
	for _, rep := range r.Reports {
		t.AddRow(output.Truncate(rep.Name, 24), rep.Email,
			render.OneDecimal(rep.TotalHours), render.OneDecimal(rep.RequiredHours),
			render.OneDecimal(rep.CompletionRate)+"%")
	}
	if err := t.Render(); err != nil {
		return err
	}
	if len(r.Reports) == 0 {
		_, err := fmt.Fprintln(w, "  No users")
		return err
	}
	return nil
}

func newWeeklyCmd() *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Print the weekly hours report",
		Long: `Fetch /api/reports/weekly for the week containing --week (default the
current week). Weeks start on Monday.

Examples:
  tdash weekly
  tdash weekly --week 2024-01-03 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var day time.Time
			if week != "" {
				d, err := time.Parse("2006-01-02", week)
				if err != nil {
					return fmt.Errorf("invalid --week %q: use YYYY-MM-DD", week)
				}
				day = d
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			set, err := client.FetchWeekly(cmd.Context(), day)
			if err != nil {
				return err
			}
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			return f.Output(weeklyResult{set})
		},
	}
	cmd.Flags().StringVar(&week, "week", "", "any day of the week to report, YYYY-MM-DD")
	return cmd
}
