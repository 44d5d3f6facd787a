package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the audit artifacts",
		Long: `Build every artifact for the latest scan and write them to the
configured reports directory:

  assignments.md     star assignment report
  validation.md      rule set validation report
  move_plan.md       ordered move plan
  todos.md           TODO inventory
  suppressions.md    suppression ledger

With -o json the artifacts are written as .json instead.`,
		Example: `  # Write markdown artifacts to the reports directory
  starlift report

  # Print everything to stdout instead
  starlift report --stdout

  # JSON artifacts
  starlift report -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			scan, err := cc.Engine.Store().GetLatestScan()
			if err != nil {
				return fmt.Errorf("no scan found, run 'starlift assign' first: %w", err)
			}

			store := cc.Engine.Store()
			assignments, err := store.GetAssignments(scan.ID)
			if err != nil {
				return err
			}
			modules, err := store.ListModules()
			if err != nil {
				return err
			}
			moves, err := store.GetMoves(scan.ID)
			if err != nil {
				return err
			}
			todos, err := store.GetTodos(scan.ID)
			if err != nil {
				return err
			}
			sups, err := store.GetSuppressions(scan.ID)
			if err != nil {
				return err
			}
			issues := rules.Validate(cc.Engine.RuleSet())

			type artifact struct {
				name     string
				payload  any
				markdown string
			}

			assignRep := report.BuildAssignmentReport(scan, assignments, modules)
			validRep := report.BuildValidationReport(cc.Cfg.RulesPath, issues)
			movePlan := report.BuildMovePlan(scan, moves)
			todoInv := report.BuildTodoInventory(scan, todos)
			supLedger := report.BuildSuppressionLedger(scan, sups)

			artifacts := []artifact{
				{"assignments", assignRep, assignRep.Markdown()},
				{"validation", validRep, validRep.Markdown()},
				{"move_plan", movePlan, movePlan.Markdown()},
				{"todos", todoInv, todoInv.Markdown()},
				{"suppressions", supLedger, supLedger.Markdown()},
			}

			asJSON := cc.Renderer.EffectiveMode() == output.ModeJSON

			if toStdout {
				for _, a := range artifacts {
					if asJSON {
						if err := cc.Renderer.JSON(a.payload); err != nil {
							return err
						}
						continue
					}
					cc.Renderer.Println(a.markdown)
				}
				return nil
			}

			if err := os.MkdirAll(cc.Cfg.ReportsDir, 0750); err != nil {
				return fmt.Errorf("failed to create reports directory: %w", err)
			}
			for _, a := range artifacts {
				var data []byte
				name := a.name + ".md"
				if asJSON {
					name = a.name + ".json"
					data, err = json.MarshalIndent(a.payload, "", "  ")
					if err != nil {
						return err
					}
					data = append(data, '\n')
				} else {
					data = []byte(a.markdown)
				}
				path := filepath.Join(cc.Cfg.ReportsDir, name)
				if err := os.WriteFile(path, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				cc.Renderer.Printf("  %s\n", path)
			}
			cc.Renderer.Success(fmt.Sprintf("%d artifacts written to %s", len(artifacts), cc.Cfg.ReportsDir))
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print artifacts to stdout instead of writing files")

	return cmd
}
