package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rescan and reassign on file changes",
		Long: `Watch the repository root and rerun scan and assignment whenever files
change. Bursts of events are debounced into a single run. Stop with
Ctrl-C.`,
		Example: `  # Watch with the default 2s debounce
  starlift watch

  # Calmer rebuilds
  starlift watch --debounce 10s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := cc.Renderer
			r.Printf("Watching %s (debounce %s). Ctrl-C to stop.\n", cc.Cfg.Root, debounce)

			onChange := func(ctx context.Context) error {
				scan, _, err := cc.Engine.Scan(ctx)
				if err != nil {
					r.Error(fmt.Sprintf("rescan failed: %v", err))
					return nil
				}
				assignments, err := cc.Engine.Assign(ctx, scan.ID)
				if err != nil {
					r.Error(fmt.Sprintf("assignment failed: %v", err))
					return nil
				}
				r.Printf("[%s] rescanned: %d modules, %d assignments\n",
					time.Now().Format("15:04:05"), scan.ModulesTotal, len(assignments))
				return nil
			}

			// Run once up front so the watch starts from fresh state.
			if err := onChange(cmd.Context()); err != nil {
				return err
			}

			return cc.Engine.Watch(cmd.Context(), debounce, onChange)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "Quiet period before rescanning after a change")

	return cmd
}
