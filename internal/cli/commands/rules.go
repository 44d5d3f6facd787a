package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/internal/state"
	starpred "github.com/lukhas-labs/starlift/internal/starlark"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// NewRulesCommand creates the rules command with its subcommands.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate the star rule set",
		Long: `Work with the star rules file: list the rules, show one rule in
detail, or validate the whole set.`,
	}

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesShowCommand())
	cmd.AddCommand(newRulesValidateCommand())

	return cmd
}

// loadRuleSet reads the configured rules file. No engine or store needed.
func loadRuleSet(cc *CommandContext) (*rules.RuleSet, error) {
	set, err := rules.Load(cc.Cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %s: %w", cc.Cfg.RulesPath, err)
	}
	return set, nil
}

func newRulesListCommand() *cobra.Command {
	var star string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the star rules",
		Example: `  # List all rules
  starlift rules list

  # List rules voting for one star
  starlift rules list --star memory`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutEngine(cmd)
			set, err := loadRuleSet(cc)
			if err != nil {
				return err
			}

			defs := set.Rules
			if star != "" {
				filtered := make([]rules.RuleDef, 0, len(defs))
				for _, d := range defs {
					if d.Star == star {
						filtered = append(filtered, d)
					}
				}
				defs = filtered
			}

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(defs)
			case output.ModeMarkdown:
				r.Println("# Star Rules")
				r.Println("")
				r.Println("| ID | Star | Signal | Pattern | Weight | Override |")
				r.Println("|----|------|--------|---------|--------|----------|")
				for _, d := range defs {
					r.Printf("| %s | %s | %s | %s | %.2f | %v |\n",
						d.ID, d.Star, d.Signal, rulePattern(&d), set.WeightFor(&d), d.Override)
				}
				return nil
			}

			styles := r.Styles()
			r.Println("")
			r.Println(styles.Header1.Render(fmt.Sprintf("Star Rules (%d rules, %d stars)", len(defs), len(set.Stars))))
			r.Println("")
			currentStar := ""
			for i := range defs {
				d := &defs[i]
				if d.Star != currentStar {
					currentStar = d.Star
					r.Println(styles.Header2.Render("  " + currentStar))
				}
				marker := ""
				if d.Override {
					marker = styles.Warning.Render("  [override]")
				}
				r.Printf("    %s  %s %s (%.2f)%s\n",
					styles.Muted.Render(d.ID), d.Signal, rulePattern(d), set.WeightFor(d), marker)
			}
			r.Println("")
			r.Println(styles.Muted.Render("Use 'starlift rules show <rule-id>' for details"))
			return nil
		},
	}

	cmd.Flags().StringVar(&star, "star", "", "Only rules voting for this star")

	return cmd
}

func newRulesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show one rule in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContextWithoutEngine(cmd)
			set, err := loadRuleSet(cc)
			if err != nil {
				return err
			}

			var def *rules.RuleDef
			for i := range set.Rules {
				if set.Rules[i].ID == args[0] {
					def = &set.Rules[i]
					break
				}
			}
			if def == nil {
				return fmt.Errorf("rule %q not found in %s", args[0], cc.Cfg.RulesPath)
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(def)
			}

			styles := r.Styles()
			r.Println("")
			r.Println(styles.Header1.Render(def.ID))
			r.Println("")
			r.Printf("  %s: %s\n", styles.Bold.Render("Star"), def.Star)
			r.Printf("  %s: %s\n", styles.Bold.Render("Signal"), def.Signal)
			if def.Pattern != "" {
				r.Printf("  %s: %s\n", styles.Bold.Render("Pattern"), def.Pattern)
			}
			if def.Function != "" {
				r.Printf("  %s: %s\n", styles.Bold.Render("Function"), def.Function)
			}
			r.Printf("  %s: %.2f\n", styles.Bold.Render("Weight"), set.WeightFor(def))
			if def.Override {
				r.Printf("  %s: matching modules are pinned to %s\n", styles.Bold.Render("Override"), def.Star)
			}
			if def.Reason != "" {
				r.Println("")
				r.Println(styles.Bold.Render("Reason"))
				r.Println("  " + def.Reason)
			}
			return nil
		},
	}
}

func newRulesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the star rule set",
		Long: `Check the rule set structurally: unknown stars, bad patterns, weights
out of range, duplicate IDs, overrides on the wrong signal kinds. Exits
with code 2 when the set has errors.

When a previous scan exists, rules that matched none of the scanned
modules are additionally reported as info.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutEngine(cmd)
			set, err := loadRuleSet(cc)
			if err != nil {
				return err
			}

			issues := rules.Validate(set)
			if !rules.HasErrors(issues) {
				issues = append(issues, coverageIssues(cc, set)...)
			}
			rep := report.BuildValidationReport(cc.Cfg.RulesPath, issues)

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				if err := r.JSON(rep); err != nil {
					return err
				}
			case output.ModeMarkdown:
				r.Println(rep.Markdown())
			default:
				printValidationText(r, rep)
			}

			if !rep.Valid {
				return &ExitError{Code: 2, Msg: fmt.Sprintf("rule set has %d validation errors", countErrors(issues))}
			}
			return nil
		},
	}
}

// coverageIssues runs the match-coverage pass against the modules of the
// latest scan. Best-effort: no state database, no completed scan, or a rule
// set that will not compile all mean no coverage issues.
func coverageIssues(cc *CommandContext, set *rules.RuleSet) []rules.Issue {
	cfg := cc.Cfg
	if cfg.StateDriver != state.DriverPostgres {
		if _, err := os.Stat(resolveStatePath(cfg)); err != nil {
			return nil
		}
	}

	store, err := openStore(cfg, cc.Logger)
	if err != nil {
		return nil
	}
	defer func() { _ = store.Close() }()

	if _, err := store.GetLatestScan(); err != nil {
		return nil
	}
	modules, err := store.ListModules()
	if err != nil || len(modules) == 0 {
		return nil
	}

	var opts []rules.Option
	if cfg.PredicatesPath != "" {
		if _, statErr := os.Stat(cfg.PredicatesPath); statErr == nil {
			ev, err := starpred.LoadFile(cfg.PredicatesPath)
			if err != nil {
				return nil
			}
			opts = append(opts, rules.WithPredicates(ev))
		}
	}

	eng, err := rules.Compile(set, opts...)
	if err != nil {
		return nil
	}
	return eng.Coverage(modules)
}

func printValidationText(r *output.Renderer, rep *report.ValidationReport) {
	styles := r.Styles()
	r.Println("")
	r.Println(styles.Header1.Render("Rule Validation"))
	r.Printf("Rules file: %s\n\n", rep.RulesPath)

	if len(rep.Issues) == 0 {
		r.Success("No issues found.")
		return
	}
	for _, issue := range rep.Issues {
		style := styles.Info
		switch issue.Severity {
		case core.SeverityError:
			style = styles.Error
		case core.SeverityWarning:
			style = styles.Warning
		}
		r.Println("  " + style.Render(issue.String()))
	}
	r.Println("")
	if rep.Valid {
		r.Success("Rule set is valid (warnings only).")
	}
}

func rulePattern(d *rules.RuleDef) string {
	if d.Signal == core.SignalPredicate {
		return d.Function + "()"
	}
	return d.Pattern
}

func countErrors(issues []rules.Issue) int {
	n := 0
	for _, i := range issues {
		if i.Severity == core.SeverityError {
			n++
		}
	}
	return n
}
