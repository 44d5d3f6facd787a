package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a starlift project",
		Long: `Initialize a starlift project with a starter configuration.

This creates:
  - starlift.yaml configuration file
  - configs/star_rules.json with example star rules
  - configs/predicates.star with example Starlark predicates`,
		Example: `  # Initialize in the current directory
  starlift init

  # Initialize in a new directory
  starlift init my-repo

  # Force overwrite existing config
  starlift init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "starlift.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("starlift.yaml already exists. Use --force to overwrite")
	}

	if err := os.MkdirAll(filepath.Join(dir, "configs"), 0750); err != nil {
		return err
	}

	files := map[string]string{
		configPath: starterConfig,
		filepath.Join(dir, "configs", "star_rules.json"): starterRules,
		filepath.Join(dir, "configs", "predicates.star"): starterPredicates,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	r.Println("  starlift.yaml")
	r.Println("  configs/star_rules.json")
	r.Println("  configs/predicates.star")
	r.Println("")
	r.Success("starlift project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Describe your stars and rules in configs/star_rules.json")
	r.Println("  2. Run 'starlift scan' to inventory the repository")
	r.Println("  3. Run 'starlift assign' to classify modules into stars")
	r.Println("  4. Run 'starlift doctor' to audit the result")

	return nil
}
