package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/tui"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse assignments interactively",
		Long: `Open a terminal UI over the latest scan's assignments. Filter by
status or module path, and inspect the signals behind each decision.`,
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
			assignments, err := cc.Engine.Store().GetAssignments(scan.ID)
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				return fmt.Errorf("no assignments for scan %s, run 'starlift assign' first", scan.ID)
			}

			return tui.Run(scan, assignments)
		},
	}
}
