package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// NewAssignCommand creates the assign command.
func NewAssignCommand() *cobra.Command {
	var noScan bool

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Classify modules into stars",
		Long: `Score every module against the star rules and persist the resulting
assignments. By default a fresh scan runs first; --no-scan reuses the
latest recorded scan.`,
		Example: `  # Scan and assign
  starlift assign

  # Reuse the latest scan
  starlift assign --no-scan

  # Machine-readable report
  starlift assign -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			var scan *core.Scan
			if noScan {
				scan, err = cc.Engine.Store().GetLatestScan()
				if err != nil {
					return fmt.Errorf("no previous scan found, run 'starlift scan' first: %w", err)
				}
			} else {
				scan, _, err = cc.Engine.Scan(cmd.Context())
				if err != nil {
					return fmt.Errorf("scan failed: %w", err)
				}
			}

			assignments, err := cc.Engine.Assign(cmd.Context(), scan.ID)
			if err != nil {
				return err
			}
			modules, err := cc.Engine.Store().ListModules()
			if err != nil {
				return err
			}

			rep := report.BuildAssignmentReport(scan, assignments, modules)
			return renderAssignments(cc.Renderer, rep, assignments)
		},
	}

	cmd.Flags().BoolVar(&noScan, "no-scan", false, "Reuse the latest scan instead of rescanning")

	return cmd
}

func renderAssignments(r *output.Renderer, rep *report.AssignmentReport, assignments []*core.Assignment) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rep)
	case output.ModeMarkdown:
		r.Println(rep.Markdown())
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Module", "Star", "Status", "Confidence"})
	for _, a := range assignments {
		star := a.Star
		if star == "" {
			star = "-"
		}
		t.AppendRow(table.Row{a.Module, star, string(a.Status), fmt.Sprintf("%.2f", a.Confidence)})
	}
	t.Render()

	r.Println("")
	styles := r.Styles()
	for _, status := range []core.AssignmentStatus{core.StatusPromote, core.StatusPinned, core.StatusReview, core.StatusUnassigned} {
		style := styles.Muted
		switch status {
		case core.StatusPromote, core.StatusPinned:
			style = styles.Success
		case core.StatusReview:
			style = styles.Warning
		case core.StatusUnassigned:
			style = styles.Error
		}
		r.Println(style.Render(fmt.Sprintf("%-12s %d", status, rep.Totals[status])))
	}
	return nil
}
