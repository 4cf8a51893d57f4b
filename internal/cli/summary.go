package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/timetracker/tdash/internal/model"
	"github.com/timetracker/tdash/internal/output"
	"github.com/timetracker/tdash/internal/render"
)

type summaryResult struct {
	model.Analytics `yaml:",inline"`

	markdown bool
	style    string
	width    int
}

// Markdown renders the analytics as a markdown document.
func (r summaryResult) Markdown() string {
	var b strings.Builder
	b.WriteString("# Team summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	row := func(k, v string) { fmt.Fprintf(&b, "| %s | %s |\n", k, v) }
	row("Total users", fmt.Sprint(r.TotalUsers))
	row("Active now", fmt.Sprint(r.ActiveUsers))
	row("Weekly hours", render.OneDecimal(r.TotalWeeklyHours)+"h")
	row("Monthly hours", render.OneDecimal(r.TotalMonthlyHours)+"h")
	row("Average weekly hours", render.OneDecimal(r.AvgWeeklyHours)+"h")
	row("Average monthly hours", render.OneDecimal(r.AvgMonthlyHours)+"h")
	row("Total working hours", render.OneDecimal(r.TotalWorkingHours)+"h")
	fmt.Fprintf(&b, "\nWeekly completion is **%s%%** of %gh per user; monthly completion is **%s%%** of %gh.\n",
		render.OneDecimal(r.WeeklyCompletion), model.WeeklyTarget,
		render.OneDecimal(r.MonthlyCompletion), model.MonthlyTarget)
	return b.String()
}

func (r summaryResult) Text(w io.Writer) error {
	md := r.Markdown()
	if r.markdown {
		_, err := io.WriteString(w, md)
		return err
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(r.width)}
	if r.style != "" {
		opts = append(opts, glamour.WithStandardStyle(r.style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return err
	}
	out, err := tr.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func newSummaryCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the tracker's team analytics",
		Long: `Fetch /api/analytics and render it as a markdown report.

Examples:
  tdash summary
  tdash summary --markdown > summary.md
  tdash summary -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			a, err := client.FetchAnalytics(cmd.Context())
			if err != nil {
				return err
			}
			f, err := formatter(cmd)
			if err != nil {
				return err
			}
			res := summaryResult{Analytics: a, markdown: markdown, width: output.TerminalWidth(80)}
			if !output.ColorEnabled(cmd.OutOrStdout()) {
				res.style = "notty"
			}
			return f.Output(res)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print the raw markdown")
	return cmd
}
