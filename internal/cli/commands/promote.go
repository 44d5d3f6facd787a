package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// NewPromoteCommand creates the promote command.
func NewPromoteCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Plan (and optionally apply) module moves into star roots",
		Long: `Derive the move plan for the latest scan: every promoted or pinned
module not already under its star's root gets a move instruction,
ordered so dependencies relocate before their dependents. Modules in a
dependency cycle are planned as blocked.

Without --apply this is a dry run; the plan is persisted but no files
move.`,
		Example: `  # Show the move plan
  starlift promote

  # Actually move the module directories
  starlift promote --apply`,
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

			moves, err := cc.Engine.Plan(cmd.Context(), scan.ID)
			if err != nil {
				return err
			}

			if apply {
				if err := applyMoves(cc, moves); err != nil {
					return err
				}
			}

			plan := report.BuildMovePlan(scan, moves)
			switch cc.Renderer.EffectiveMode() {
			case output.ModeJSON:
				return cc.Renderer.JSON(plan)
			default:
				cc.Renderer.Println(plan.Markdown())
			}
			if !apply && len(moves) > 0 {
				cc.Renderer.Println("Dry run. Re-run with --apply to move the directories.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Move the module directories on disk")

	return cmd
}

// applyMoves renames each planned move's directory under the repository root
// and marks it applied. Blocked moves are skipped.
func applyMoves(cc *CommandContext, moves []*core.Move) error {
	for _, m := range moves {
		if m.Status != core.MoveStatusPlanned {
			continue
		}
		from := filepath.Join(cc.Cfg.Root, filepath.FromSlash(m.From))
		to := filepath.Join(cc.Cfg.Root, filepath.FromSlash(m.To))

		if _, err := os.Stat(to); err == nil {
			m.Status = core.MoveStatusBlocked
			m.Reason = "target already exists"
			if err := cc.Engine.Store().MarkMoveBlocked(m.ID, m.Reason); err != nil {
				return err
			}
			cc.Renderer.Warning(fmt.Sprintf("skipping %s: target %s already exists", m.Module, m.To))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(to), 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(to), err)
		}
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("failed to move %s: %w", m.Module, err)
		}
		if err := cc.Engine.Store().MarkMoveApplied(m.ID); err != nil {
			return err
		}
		m.Status = core.MoveStatusApplied
		cc.Logger.Info("moved module", "module", m.Module, "to", m.To)
	}
	return nil
}
