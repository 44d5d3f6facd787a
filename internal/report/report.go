// Package report builds the audit artifacts: the assignment report, the
// validation report, the move plan, the TODO inventory, and the suppression
// ledger. Each artifact is a plain struct that marshals to JSON and renders
// to markdown; the CLI decides which representation to emit.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// Header is shared metadata stamped on every artifact.
type Header struct {
	GeneratedAt time.Time `json:"generated_at"`
	ScanID      string    `json:"scan_id"`
	Root        string    `json:"root"`
}

func header(scan *core.Scan) Header {
	h := Header{GeneratedAt: time.Now().UTC()}
	if scan != nil {
		h.ScanID = scan.ID
		h.Root = scan.Root
	}
	return h
}

func (h Header) markdownMeta(b *strings.Builder) {
	fmt.Fprintf(b, "Generated: %s  \n", h.GeneratedAt.Format(time.RFC3339))
	if h.ScanID != "" {
		fmt.Fprintf(b, "Scan: `%s`  \n", h.ScanID)
	}
	if h.Root != "" {
		fmt.Fprintf(b, "Root: `%s`  \n", h.Root)
	}
	b.WriteString("\n")
}

// StarSummary aggregates one star's assignments.
type StarSummary struct {
	Star       string  `json:"star"`
	Modules    int     `json:"modules"`
	Pinned     int     `json:"pinned"`
	AvgScore   float64 `json:"avg_confidence"`
	TotalLines int     `json:"total_lines"`
}

// AssignmentReport is the star assignment artifact.
type AssignmentReport struct {
	Header
	Stars       []StarSummary                `json:"stars"`
	Assignments []*core.Assignment           `json:"assignments"`
	Totals      map[core.AssignmentStatus]int `json:"totals"`
}

// BuildAssignmentReport assembles the assignment artifact from a scan's
// persisted assignments. Module line counts are optional; pass nil to omit.
func BuildAssignmentReport(scan *core.Scan, assignments []*core.Assignment, modules []*core.Module) *AssignmentReport {
	lines := make(map[string]int, len(modules))
	for _, m := range modules {
		lines[m.Path] = m.LineCount
	}

	totals := make(map[core.AssignmentStatus]int)
	perStar := make(map[string]*StarSummary)
	for _, a := range assignments {
		totals[a.Status]++
		if a.Star == "" {
			continue
		}
		s, ok := perStar[a.Star]
		if !ok {
			s = &StarSummary{Star: a.Star}
			perStar[a.Star] = s
		}
		s.Modules++
		s.AvgScore += a.Confidence
		s.TotalLines += lines[a.Module]
		if a.Status == core.StatusPinned {
			s.Pinned++
		}
	}

	stars := make([]StarSummary, 0, len(perStar))
	for _, s := range perStar {
		if s.Modules > 0 {
			s.AvgScore /= float64(s.Modules)
		}
		stars = append(stars, *s)
	}
	sort.Slice(stars, func(i, j int) bool { return stars[i].Star < stars[j].Star })

	return &AssignmentReport{
		Header:      header(scan),
		Stars:       stars,
		Assignments: assignments,
		Totals:      totals,
	}
}

// Markdown renders the assignment report.
func (r *AssignmentReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# Star Assignment Report\n\n")
	r.markdownMeta(&b)

	fmt.Fprintf(&b, "**%d modules**: %d promote, %d pinned, %d review, %d unassigned\n\n",
		len(r.Assignments),
		r.Totals[core.StatusPromote], r.Totals[core.StatusPinned],
		r.Totals[core.StatusReview], r.Totals[core.StatusUnassigned])

	if len(r.Stars) > 0 {
		b.WriteString("## Stars\n\n")
		b.WriteString("| Star | Modules | Pinned | Avg Confidence | Lines |\n")
		b.WriteString("|------|---------|--------|----------------|-------|\n")
		for _, s := range r.Stars {
			fmt.Fprintf(&b, "| %s | %d | %d | %.2f | %d |\n",
				s.Star, s.Modules, s.Pinned, s.AvgScore, s.TotalLines)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Assignments\n\n")
	b.WriteString("| Module | Star | Status | Confidence | Margin | Signals |\n")
	b.WriteString("|--------|------|--------|------------|--------|---------|\n")
	for _, a := range r.Assignments {
		star := a.Star
		if star == "" {
			star = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f | %s |\n",
			a.Module, star, a.Status, a.Confidence, a.Margin, signalSummary(a.Signals))
	}
	return b.String()
}

func signalSummary(signals []core.Signal) string {
	if len(signals) == 0 {
		return "-"
	}
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = fmt.Sprintf("%s (%.2f)", s.RuleID, s.Weight)
	}
	return strings.Join(parts, ", ")
}

// ValidationReport is the rule set validation artifact.
type ValidationReport struct {
	Header
	RulesPath string        `json:"rules_path"`
	Issues    []rules.Issue `json:"issues"`
	Valid     bool          `json:"valid"`
}

// BuildValidationReport assembles the validation artifact.
func BuildValidationReport(rulesPath string, issues []rules.Issue) *ValidationReport {
	return &ValidationReport{
		Header:    header(nil),
		RulesPath: rulesPath,
		Issues:    issues,
		Valid:     !rules.HasErrors(issues),
	}
}

// Markdown renders the validation report.
func (r *ValidationReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# Rule Set Validation\n\n")
	r.markdownMeta(&b)
	fmt.Fprintf(&b, "Rules: `%s`\n\n", r.RulesPath)

	if len(r.Issues) == 0 {
		b.WriteString("No problems found.\n")
		return b.String()
	}

	b.WriteString("| Severity | Rule | Message |\n")
	b.WriteString("|----------|------|--------|\n")
	for _, issue := range r.Issues {
		rule := issue.RuleID
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", issue.Severity, rule, issue.Message)
	}
	return b.String()
}

// MovePlan is the migration plan artifact.
type MovePlan struct {
	Header
	Moves   []*core.Move `json:"moves"`
	Blocked int          `json:"blocked"`
}

// BuildMovePlan assembles the move plan artifact.
func BuildMovePlan(scan *core.Scan, moves []*core.Move) *MovePlan {
	blocked := 0
	for _, m := range moves {
		if m.Status == core.MoveStatusBlocked {
			blocked++
		}
	}
	return &MovePlan{Header: header(scan), Moves: moves, Blocked: blocked}
}

// Markdown renders the move plan. Moves are listed in execution order.
func (p *MovePlan) Markdown() string {
	var b strings.Builder
	b.WriteString("# Move Plan\n\n")
	p.markdownMeta(&b)

	if len(p.Moves) == 0 {
		b.WriteString("Nothing to move.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "**%d moves** (%d blocked)\n\n", len(p.Moves), p.Blocked)

	b.WriteString("| # | Module | Star | To | Status | Reason |\n")
	b.WriteString("|---|--------|------|----|--------|--------|\n")
	for i, m := range p.Moves {
		reason := m.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, m.Module, m.Star, m.To, m.Status, reason)
	}
	return b.String()
}

// TodoInventory is the TODO marker artifact.
type TodoInventory struct {
	Header
	Todos     []*core.TodoItem `json:"todos"`
	ByMarker  map[string]int   `json:"by_marker"`
	Unowned   int              `json:"unowned"`
}

// BuildTodoInventory assembles the TODO artifact.
func BuildTodoInventory(scan *core.Scan, todos []*core.TodoItem) *TodoInventory {
	byMarker := make(map[string]int)
	unowned := 0
	for _, t := range todos {
		byMarker[t.Marker]++
		if t.Owner == "" {
			unowned++
		}
	}
	return &TodoInventory{Header: header(scan), Todos: todos, ByMarker: byMarker, Unowned: unowned}
}

// Markdown renders the TODO inventory grouped by module.
func (r *TodoInventory) Markdown() string {
	var b strings.Builder
	b.WriteString("# TODO Inventory\n\n")
	r.markdownMeta(&b)

	if len(r.Todos) == 0 {
		b.WriteString("No TODO markers found.\n")
		return b.String()
	}

	markers := make([]string, 0, len(r.ByMarker))
	for m := range r.ByMarker {
		markers = append(markers, m)
	}
	sort.Strings(markers)
	parts := make([]string, len(markers))
	for i, m := range markers {
		parts[i] = fmt.Sprintf("%d %s", r.ByMarker[m], m)
	}
	fmt.Fprintf(&b, "**%d markers** (%s), %d without an owner\n\n",
		len(r.Todos), strings.Join(parts, ", "), r.Unowned)

	current := ""
	for _, t := range r.Todos {
		if t.Module != current {
			current = t.Module
			fmt.Fprintf(&b, "## %s\n\n", current)
		}
		owner := ""
		if t.Owner != "" {
			owner = fmt.Sprintf(" (owner: %s)", t.Owner)
		}
		fmt.Fprintf(&b, "- `%s:%d` **%s**%s %s\n", t.File, t.Line, t.Marker, owner, t.Text)
	}
	return b.String()
}

// SuppressionLedger is the suppression directive artifact.
type SuppressionLedger struct {
	Header
	Suppressions []*core.Suppression `json:"suppressions"`
	Justified    int                 `json:"justified"`
	Unjustified  int                 `json:"unjustified"`
}

// BuildSuppressionLedger assembles the suppression artifact.
func BuildSuppressionLedger(scan *core.Scan, sups []*core.Suppression) *SuppressionLedger {
	justified := 0
	for _, s := range sups {
		if s.Justified {
			justified++
		}
	}
	return &SuppressionLedger{
		Header:       header(scan),
		Suppressions: sups,
		Justified:    justified,
		Unjustified:  len(sups) - justified,
	}
}

// Markdown renders the suppression ledger.
func (r *SuppressionLedger) Markdown() string {
	var b strings.Builder
	b.WriteString("# Suppression Ledger\n\n")
	r.markdownMeta(&b)

	if len(r.Suppressions) == 0 {
		b.WriteString("No suppression directives found.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "**%d directives**: %d justified, %d unjustified\n\n",
		len(r.Suppressions), r.Justified, r.Unjustified)

	b.WriteString("| Location | Module | Directive | Justified | Reason |\n")
	b.WriteString("|----------|--------|-----------|-----------|--------|\n")
	for _, s := range r.Suppressions {
		justified := "no"
		if s.Justified {
			justified = "yes"
		}
		reason := s.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(&b, "| %s:%d | %s | `%s` | %s | %s |\n",
			s.File, s.Line, s.Module, s.Directive, justified, reason)
	}
	return b.String()
}
