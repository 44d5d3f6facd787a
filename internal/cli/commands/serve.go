package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/ui"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report viewer over HTTP",
		Long: `Start a local web server showing the latest scan: health score,
assignments, findings, move plan, and the TODO and suppression ledgers.
A JSON API is available under /api.`,
		Example: `  # Serve on the configured address
  starlift serve

  # Custom address
  starlift serve --addr 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			serveCfg := cc.Cfg.GetServeConfig()
			if addr != "" {
				serveCfg.Addr = addr
			}

			server := ui.NewServer(ui.Config{
				Store:   cc.Engine.Store(),
				RuleSet: cc.Engine.RuleSet(),
				Addr:    serveCfg.Addr,
				Logger:  cc.Logger,
			})

			cc.Renderer.Printf("Serving on http://%s\n", serveCfg.Addr)
			cc.Renderer.Println("Press Ctrl+C to stop")

			if err := server.Serve(cmd.Context()); err != nil {
				return fmt.Errorf("serve failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (host:port)")

	return cmd
}
