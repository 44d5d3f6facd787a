package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// NewSuppressionsCommand creates the suppressions command.
func NewSuppressionsCommand() *cobra.Command {
	var unjustified bool

	cmd := &cobra.Command{
		Use:   "suppressions",
		Short: "Show the suppression ledger from the latest scan",
		Long: `List lint and type-check suppression directives found in source.
A suppression is justified when the directive carries an explanation.`,
		Example: `  # Full ledger
  starlift suppressions

  # Only directives with no justification
  starlift suppressions --unjustified`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			scan, err := cc.Engine.Store().GetLatestScan()
			if err != nil {
				return fmt.Errorf("no scan found, run 'starlift scan' first: %w", err)
			}
			sups, err := cc.Engine.Store().GetSuppressions(scan.ID)
			if err != nil {
				return err
			}

			if unjustified {
				filtered := make([]*core.Suppression, 0, len(sups))
				for _, s := range sups {
					if !s.Justified {
						filtered = append(filtered, s)
					}
				}
				sups = filtered
			}
			ledger := report.BuildSuppressionLedger(scan, sups)

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(ledger)
			case output.ModeMarkdown:
				r.Println(ledger.Markdown())
				return nil
			}

			if len(sups) == 0 {
				r.Success("No suppressions found.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Module", "File", "Line", "Directive", "Justified", "Reason"})
			for _, s := range sups {
				justified := "no"
				if s.Justified {
					justified = "yes"
				}
				t.AppendRow(table.Row{s.Module, s.File, s.Line, s.Directive, justified, s.Reason})
			}
			t.Render()
			r.Printf("(%d suppressions, %d unjustified)\n", len(sups), ledger.Unjustified)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unjustified, "unjustified", false, "Only unjustified suppressions")

	return cmd
}
