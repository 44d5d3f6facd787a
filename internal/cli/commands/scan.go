package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the repository and refresh the module inventory",
		Long: `Walk the repository root, discover modules from module.yaml manifests
and inferred source directories, and record the TODO and suppression
ledgers for this scan.`,
		Example: `  # Scan the configured root
  starlift scan

  # Scan a different tree
  starlift scan --root ../lukhas`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			scan, result, err := cc.Engine.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(scan)
			}

			printScanSummary(cc.Renderer, scan)
			if len(result.Errors) > 0 {
				cc.Renderer.Warning(fmt.Sprintf("%d paths could not be fully scanned (see log)", len(result.Errors)))
			}
			return nil
		},
	}
}

func printScanSummary(r *output.Renderer, scan *core.Scan) {
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Printf("# Scan %s\n\n", scan.ID)
		r.Printf("- Root: `%s`\n", scan.Root)
		r.Printf("- Modules: %d (%d declared)\n", scan.ModulesTotal, scan.ModulesDeclared)
		r.Printf("- TODOs: %d\n", scan.TodosTotal)
		r.Printf("- Suppressions: %d\n", scan.Suppressions)
		return
	}

	styles := r.Styles()
	r.Println(styles.Header1.Render("Scan " + scan.ID))
	r.Printf("Root:         %s\n", scan.Root)
	r.Printf("Modules:      %d (%d declared)\n", scan.ModulesTotal, scan.ModulesDeclared)
	r.Printf("TODOs:        %d\n", scan.TodosTotal)
	r.Printf("Suppressions: %d\n", scan.Suppressions)
}
