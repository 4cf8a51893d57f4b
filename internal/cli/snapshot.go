package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/output"
	"github.com/timetracker/tdash/internal/render"
)

type snapshotSummary struct {
	TotalUsers   int    `json:"total_users" yaml:"total_users"`
	ActiveUsers  int    `json:"active_users" yaml:"active_users"`
	WeeklyHours  string `json:"weekly_hours" yaml:"weekly_hours"`
	MonthlyHours string `json:"monthly_hours" yaml:"monthly_hours"`
}

type snapshotResult struct {
	FetchedAt time.Time       `json:"fetched_at" yaml:"fetched_at"`
	Summary   snapshotSummary `json:"summary" yaml:"summary"`
	Users     []model.User    `json:"users" yaml:"users"`

	loc *time.Location
}

func newSnapshotResult(users []model.User, loc *time.Location, now time.Time) snapshotResult {
	s := render.ComputeSummary(users)
	return snapshotResult{
		FetchedAt: now,
		Summary: snapshotSummary{
			TotalUsers:   s.TotalUsers,
			ActiveUsers:  s.ActiveUsers,
			WeeklyHours:  s.WeeklyHours,
			MonthlyHours: s.MonthlyHours,
		},
		Users: users,
		loc:   loc,
	}
}

// Text renders the table in dashboard order. It carries no fetch time so
// two renders of the same data compare equal.
func (r snapshotResult) Text(w io.Writer) error {
	tbl := render.NewTable(r.loc)
	tbl.Rebuild(r.Users)

	t := output.NewTable(w, "NAME", "EMAIL", "STATUS", "WEEKLY", "MONTHLY", "TOTAL", "LAST ACTIVITY")
	for _, row := range tbl.Rows() {
		t.AddRow(output.Truncate(row.Name, 24), row.Email, row.Status, row.Weekly, row.Monthly, row.Total, row.LastActivity)
	}
	if err := t.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d %s, %d working, %sh this week, %sh this month\n",
		r.Summary.TotalUsers, output.Pluralize(r.Summary.TotalUsers, "user", "users"),
		r.Summary.ActiveUsers, r.Summary.WeeklyHours, r.Summary.MonthlyHours)
	return err
}

type compareResult struct {
	*output.DiffResult
}

func (c compareResult) Text(w io.Writer) error {
	if !c.Changed() {
		_, err := fmt.Fprintf(w, "No changes since %s\n", c.From)
		return err
	}
	fmt.Fprintf(w, "%s vs %s: %d added, %d removed (%.0f%% similar)\n",
		c.From, c.To, c.Added, c.Removed, c.Similarity*100)
	for _, line := range c.Lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newSnapshotCmd() *cobra.Command {
	var compare, save string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch and print the current user list",
		Long: `Fetch /api/users once and print the table with its summary.

With --save the text table is also written to a file; --compare diffs the
live table against such a file.

Examples:
  tdash snapshot
  tdash snapshot -o yaml
  tdash snapshot --save monday.txt
  tdash snapshot --compare monday.txt`,
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
			res := newSnapshotResult(users, cfg.Location(), time.Now())

			var text bytes.Buffer
			if err := res.Text(&text); err != nil {
				return err
			}
			if save != "" {
				if err := os.WriteFile(save, text.Bytes(), 0o644); err != nil {
					return fmt.Errorf("saving snapshot: %w", err)
				}
			}

			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			if compare != "" {
				prev, err := os.ReadFile(compare)
				if err != nil {
					return fmt.Errorf("reading snapshot to compare: %w", err)
				}
				return f.Output(compareResult{output.ComputeDiff(compare, string(prev), "live", text.String())})
			}
			return f.Output(res)
		},
	}
	cmd.Flags().StringVar(&compare, "compare", "", "diff the live table against a saved snapshot")
	cmd.Flags().StringVar(&save, "save", "", "also write the text table to this file")
	return cmd
}
