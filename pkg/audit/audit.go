package audit

import (
	"sort"

	"github.com/lukhas-labs/starlift/internal/dag"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// CheckDef is a data-driven audit check definition.
// Checks are stateless; all context comes via the Check function parameter.
type CheckDef struct {
	ID          string        // Unique identifier, e.g., "SL01"
	Name        string        // Human-readable name, e.g., "unassigned-module"
	Group       string        // Category: "assignment", "ownership", "graph", "hygiene"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function
	ConfigKeys  []string      // Configuration keys this check reads

	// Documentation fields for doctor and rules tooling
	Rationale string // Why this check exists, what problems it surfaces
	Fix       string // How to resolve findings (when not obvious)
}

// CheckFunc inspects the scan snapshot and returns findings. Checks fill in
// Module, File, Line, and Message; the analyzer stamps CheckID, ScanID, and
// the effective severity.
type CheckFunc func(ctx *Context) []core.Finding

// Info converts a check definition to the transport shape used by the CLI.
func (d CheckDef) Info() core.CheckInfo {
	return core.CheckInfo{
		ID:              d.ID,
		Name:            d.Name,
		Group:           d.Group,
		Description:     d.Description,
		DefaultSeverity: d.Severity,
		ConfigKeys:      d.ConfigKeys,
		Rationale:       d.Rationale,
		Fix:             d.Fix,
	}
}

// Context is the snapshot of one completed scan that checks inspect.
// It is not safe for concurrent use; the analyzer runs checks sequentially.
type Context struct {
	Scan         *core.Scan
	RuleSet      *rules.RuleSet
	Modules      []*core.Module
	Assignments  []*core.Assignment
	Graph        *dag.Graph
	Todos        []*core.TodoItem
	Suppressions []*core.Suppression
	Config       Config

	modulesByPath       map[string]*core.Module
	assignmentsByModule map[string]*core.Assignment
}

// Module looks up a module by path.
func (c *Context) Module(path string) (*core.Module, bool) {
	if c.modulesByPath == nil {
		c.modulesByPath = make(map[string]*core.Module, len(c.Modules))
		for _, m := range c.Modules {
			c.modulesByPath[m.Path] = m
		}
	}
	m, ok := c.modulesByPath[path]
	return m, ok
}

// Assignment looks up a module's assignment.
func (c *Context) Assignment(module string) (*core.Assignment, bool) {
	if c.assignmentsByModule == nil {
		c.assignmentsByModule = make(map[string]*core.Assignment, len(c.Assignments))
		for _, a := range c.Assignments {
			c.assignmentsByModule[a.Module] = a
		}
	}
	a, ok := c.assignmentsByModule[module]
	return a, ok
}

// Config holds analyzer settings and check thresholds.
type Config struct {
	// DisabledChecks contains check IDs to skip.
	DisabledChecks map[string]bool

	// SeverityOverrides changes the default severity of checks.
	SeverityOverrides map[string]core.Severity

	// MaxTodosPerModule is the TODO count above which a module is flagged.
	MaxTodosPerModule int

	// MaxSuppressionsPerModule is the unjustified suppression count above
	// which a module is flagged. Zero flags any unjustified directive.
	MaxSuppressionsPerModule int
}

// DefaultConfig returns the analyzer defaults.
func DefaultConfig() Config {
	return Config{
		DisabledChecks:    make(map[string]bool),
		SeverityOverrides: make(map[string]core.Severity),
		MaxTodosPerModule: 5,
	}
}

// Analyzer runs registered checks against a scan snapshot.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer with optional configuration.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		c := DefaultConfig()
		config = &c
	}
	if config.MaxTodosPerModule <= 0 {
		config.MaxTodosPerModule = DefaultConfig().MaxTodosPerModule
	}
	return &Analyzer{config: *config}
}

// Analyze runs all registered checks and returns findings in a stable order.
func (a *Analyzer) Analyze(ctx *Context) []*core.Finding {
	if ctx == nil {
		return nil
	}
	ctx.Config = a.config

	var findings []*core.Finding
	for _, check := range GetAll() {
		if a.config.DisabledChecks[check.ID] {
			continue
		}

		severity := check.Severity
		if override, ok := a.config.SeverityOverrides[check.ID]; ok {
			severity = override
		}

		for _, f := range check.Check(ctx) {
			f.CheckID = check.ID
			f.Severity = severity
			if ctx.Scan != nil {
				f.ScanID = ctx.Scan.ID
			}
			found := f
			findings = append(findings, &found)
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return findings[i].Severity < findings[j].Severity
		}
		if findings[i].CheckID != findings[j].CheckID {
			return findings[i].CheckID < findings[j].CheckID
		}
		return findings[i].Module < findings[j].Module
	})
	return findings
}

// Per-severity health score deductions.
const (
	penaltyError   = 10
	penaltyWarning = 3
	penaltyInfo    = 1
)

// HealthScore computes a 0-100 score from findings. Errors cost 10 points,
// warnings 3, info 1, hints nothing.
func HealthScore(findings []*core.Finding) int {
	counts := make(map[core.Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return HealthScoreFromCounts(counts)
}

// HealthScoreFromCounts computes the score from pre-aggregated counts.
func HealthScoreFromCounts(counts map[core.Severity]int) int {
	score := 100
	score -= counts[core.SeverityError] * penaltyError
	score -= counts[core.SeverityWarning] * penaltyWarning
	score -= counts[core.SeverityInfo] * penaltyInfo
	if score < 0 {
		score = 0
	}
	return score
}
