package commands

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	FailOn string
	NoScan bool
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a repository health check",
		Long: `Scan, assign, and audit the repository, then report every finding
grouped by check, along with a 0-100 health score.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the health check
  starlift doctor

  # Fail (exit 2) when any warning or worse is found
  starlift doctor --fail-on warning

  # Audit the latest scan without rescanning
  starlift doctor --no-scan`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit with code 2 on findings at or above this severity (error|warning|info|hint)")
	cmd.Flags().BoolVar(&opts.NoScan, "no-scan", false, "Audit the latest scan instead of rescanning")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ScanID       string         `json:"scan_id"`
	Root         string         `json:"root"`
	Summary      DoctorSummary  `json:"summary"`
	HealthChecks []HealthCheck  `json:"health_checks"`
	Score        int            `json:"score"`
	FindingCount int            `json:"finding_count"`
	BySeverity   map[string]int `json:"by_severity"`
}

// DoctorSummary contains repository-level statistics.
type DoctorSummary struct {
	Modules      int `json:"modules"`
	Declared     int `json:"declared"`
	Todos        int `json:"todos"`
	Suppressions int `json:"suppressions"`
}

// HealthCheck represents a single check's result.
type HealthCheck struct {
	CheckID      string   `json:"check_id"`
	Name         string   `json:"name"`
	Group        string   `json:"group"`
	Status       string   `json:"status"` // "pass", "warn", "error", "info"
	FindingCount int      `json:"finding_count"`
	Details      []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	var failOn core.Severity
	if opts.FailOn != "" {
		sev, ok := core.ParseSeverity(opts.FailOn)
		if !ok {
			return fmt.Errorf("unknown severity %q for --fail-on", opts.FailOn)
		}
		failOn = sev
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	var scan *core.Scan
	if opts.NoScan {
		scan, err = cc.Engine.Store().GetLatestScan()
		if err != nil {
			return fmt.Errorf("no scan found, run 'starlift scan' first: %w", err)
		}
	} else {
		scan, _, err = cc.Engine.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		if _, err := cc.Engine.Assign(cmd.Context(), scan.ID); err != nil {
			return err
		}
	}

	findings, score, err := cc.Engine.Audit(cmd.Context(), scan.ID)
	if err != nil {
		return err
	}

	out := buildDoctorOutput(scan, findings, score)

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderDoctorMarkdown(r, out)
	default:
		renderDoctorText(r, out)
	}

	if opts.FailOn != "" {
		for _, f := range findings {
			if f.Severity <= failOn {
				return &ExitError{Code: 2, Msg: fmt.Sprintf("findings at or above severity %s", failOn)}
			}
		}
	}
	return nil
}

func buildDoctorOutput(scan *core.Scan, findings []*core.Finding, score int) *DoctorOutput {
	byCheck := make(map[string][]*core.Finding)
	bySeverity := make(map[string]int)
	for _, f := range findings {
		byCheck[f.CheckID] = append(byCheck[f.CheckID], f)
		bySeverity[f.Severity.String()]++
	}

	checks := audit.GetAll()
	healthChecks := make([]HealthCheck, 0, len(checks))
	for _, check := range checks {
		checkFindings := byCheck[check.ID]
		status := "pass"
		if len(checkFindings) > 0 {
			switch checkFindings[0].Severity {
			case core.SeverityError:
				status = "error"
			case core.SeverityWarning:
				status = "warn"
			default:
				status = "info"
			}
		}

		details := make([]string, 0, len(checkFindings))
		for _, f := range checkFindings {
			detail := f.Message
			if f.Module != "" {
				detail = f.Module + ": " + detail
			}
			details = append(details, detail)
		}

		healthChecks = append(healthChecks, HealthCheck{
			CheckID:      check.ID,
			Name:         check.Name,
			Group:        check.Group,
			Status:       status,
			FindingCount: len(checkFindings),
			Details:      details,
		})
	}

	sort.Slice(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].CheckID < healthChecks[j].CheckID
	})

	return &DoctorOutput{
		ScanID: scan.ID,
		Root:   scan.Root,
		Summary: DoctorSummary{
			Modules:      scan.ModulesTotal,
			Declared:     scan.ModulesDeclared,
			Todos:        scan.TodosTotal,
			Suppressions: scan.Suppressions,
		},
		HealthChecks: healthChecks,
		Score:        score,
		FindingCount: len(findings),
		BySeverity:   bySeverity,
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("starlift Repository Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Summary"))
	r.Printf("   Modules: %d (%d declared) | TODOs: %d | Suppressions: %d\n",
		out.Summary.Modules, out.Summary.Declared, out.Summary.Todos, out.Summary.Suppressions)
	r.Println("")

	r.Println(styles.Header2.Render("Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("ok")
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.Error.Render("x")
		case "info":
			icon = styles.Info.Render("i")
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.CheckID, check.Name)
		if check.FindingCount > 0 {
			status += fmt.Sprintf(" (%d findings)", check.FindingCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) {
	r.Println("# starlift Repository Health Report")
	r.Println("")

	r.Println("## Summary")
	r.Println("")
	r.Printf("- **Scan**: `%s`\n", out.ScanID)
	r.Printf("- **Modules**: %d (%d declared)\n", out.Summary.Modules, out.Summary.Declared)
	r.Printf("- **TODOs**: %d\n", out.Summary.Todos)
	r.Printf("- **Suppressions**: %d\n", out.Summary.Suppressions)
	r.Println("")

	r.Println("## Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := strings.ToUpper(check.Status)
		r.Printf("- **[%s]** %s: %s", status, check.CheckID, check.Name)
		if check.FindingCount > 0 {
			r.Printf(" (%d findings)", check.FindingCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")
}
