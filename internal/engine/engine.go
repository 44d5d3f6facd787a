// Package engine orchestrates the scan -> assign -> audit -> plan pipeline.
// It owns the store, the compiled rule engine, and the dependency graph, and
// is the only layer the CLI commands talk to.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/lukhas-labs/starlift/internal/dag"
	"github.com/lukhas-labs/starlift/internal/scanner"
	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// Config wires an Engine.
type Config struct {
	Root       string
	Excludes   []string
	Workers    int
	RuleSet    *rules.RuleSet
	Store      core.Store
	Predicates rules.PredicateEvaluator
	Audit      *audit.Config
	Logger     *slog.Logger
}

// Engine runs the pipeline stages against a repository root.
type Engine struct {
	root       string
	excludes   []string
	workers    int
	set        *rules.RuleSet
	ruleEngine *rules.Engine
	store      core.Store
	analyzer   *audit.Analyzer
	logger     *slog.Logger
}

// New validates and compiles the rule set and wires the engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("engine requires a store")
	}
	if cfg.RuleSet == nil {
		return nil, fmt.Errorf("engine requires a rule set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if issues := rules.Validate(cfg.RuleSet); rules.HasErrors(issues) {
		for _, issue := range issues {
			logger.Error("rule set problem", "rule", issue.RuleID, "message", issue.Message)
		}
		return nil, fmt.Errorf("rule set has validation errors")
	}

	var opts []rules.Option
	if cfg.Predicates != nil {
		opts = append(opts, rules.WithPredicates(cfg.Predicates))
	}
	ruleEngine, err := rules.Compile(cfg.RuleSet, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule set: %w", err)
	}

	return &Engine{
		root:       cfg.Root,
		excludes:   cfg.Excludes,
		workers:    cfg.Workers,
		set:        cfg.RuleSet,
		ruleEngine: ruleEngine,
		store:      cfg.Store,
		analyzer:   audit.NewAnalyzer(cfg.Audit),
		logger:     logger,
	}, nil
}

// Close releases the engine's store.
func (e *Engine) Close() error { return e.store.Close() }

// RuleSet returns the engine's rule set.
func (e *Engine) RuleSet() *rules.RuleSet { return e.set }

// Store returns the engine's store.
func (e *Engine) Store() core.Store { return e.store }

// Scan walks the repository, refreshes the module inventory, and records the
// TODO and suppression ledgers. Scan errors from unreadable files are logged
// and folded into the result, not fatal.
func (e *Engine) Scan(ctx context.Context) (*core.Scan, *scanner.Result, error) {
	scan, err := e.store.CreateScan(e.root)
	if err != nil {
		return nil, nil, err
	}

	s, err := scanner.New(scanner.Config{
		Root:     e.root,
		Excludes: e.excludes,
		Workers:  e.workers,
		Logger:   e.logger,
	})
	if err != nil {
		return nil, nil, e.failScan(scan, err)
	}

	result, err := s.Scan(ctx)
	if err != nil {
		return nil, nil, e.failScan(scan, err)
	}
	for _, se := range result.Errors {
		e.logger.Warn("scan problem", "path", se.Path, "type", se.Type, "message", se.Message)
	}

	paths := make([]string, 0, len(result.Modules))
	for _, m := range result.Modules {
		if err := e.store.UpsertModule(m); err != nil {
			return nil, nil, e.failScan(scan, err)
		}
		paths = append(paths, m.Path)
	}
	removed, err := e.store.DeleteModulesNotIn(paths)
	if err != nil {
		return nil, nil, e.failScan(scan, err)
	}
	if removed > 0 {
		e.logger.Info("pruned vanished modules", "count", removed)
	}

	if err := e.store.ReplaceTodos(scan.ID, result.Todos); err != nil {
		return nil, nil, e.failScan(scan, err)
	}
	if err := e.store.ReplaceSuppressions(scan.ID, result.Suppressions); err != nil {
		return nil, nil, e.failScan(scan, err)
	}

	stats := core.ScanStats{
		ModulesTotal: len(result.Modules),
		TodosTotal:   len(result.Todos),
		Suppressions: len(result.Suppressions),
	}
	for _, m := range result.Modules {
		if m.Declared {
			stats.ModulesDeclared++
		}
	}
	if err := e.store.CompleteScan(scan.ID, core.ScanStatusCompleted, "", stats); err != nil {
		return nil, nil, err
	}

	scan, err = e.store.GetScan(scan.ID)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Info("scan completed", "scan", scan.ID, "modules", stats.ModulesTotal, "declared", stats.ModulesDeclared)
	return scan, result, nil
}

func (e *Engine) failScan(scan *core.Scan, cause error) error {
	if err := e.store.CompleteScan(scan.ID, core.ScanStatusFailed, cause.Error(), core.ScanStats{}); err != nil {
		e.logger.Error("failed to record scan failure", "scan", scan.ID, "error", err)
	}
	return cause
}

// Assign scores every known module against the rule set and persists the
// assignments for the scan.
func (e *Engine) Assign(ctx context.Context, scanID string) ([]*core.Assignment, error) {
	modules, err := e.store.ListModules()
	if err != nil {
		return nil, err
	}

	assignments := make([]*core.Assignment, 0, len(modules))
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := e.ruleEngine.Assign(m)
		if err != nil {
			return nil, fmt.Errorf("failed to assign %s: %w", m.Path, err)
		}
		assignments = append(assignments, a)
	}

	if err := e.store.SaveAssignments(scanID, assignments); err != nil {
		return nil, err
	}
	e.logger.Info("assignments saved", "scan", scanID, "modules", len(assignments))
	return assignments, nil
}

// Audit runs the registered checks against the scan snapshot, persists the
// findings, and returns them with the health score.
func (e *Engine) Audit(ctx context.Context, scanID string) ([]*core.Finding, int, error) {
	snapshot, err := e.Snapshot(ctx, scanID)
	if err != nil {
		return nil, 0, err
	}

	findings := e.analyzer.Analyze(snapshot)
	if err := e.store.SaveFindings(scanID, findings); err != nil {
		return nil, 0, err
	}

	score := audit.HealthScore(findings)
	e.logger.Info("audit completed", "scan", scanID, "findings", len(findings), "score", score)
	return findings, score, nil
}

// Snapshot loads everything the audit checks and reports need for one scan.
func (e *Engine) Snapshot(ctx context.Context, scanID string) (*audit.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scan, err := e.store.GetScan(scanID)
	if err != nil {
		return nil, err
	}
	modules, err := e.store.ListModules()
	if err != nil {
		return nil, err
	}
	assignments, err := e.store.GetAssignments(scanID)
	if err != nil {
		return nil, err
	}
	todos, err := e.store.GetTodos(scanID)
	if err != nil {
		return nil, err
	}
	sups, err := e.store.GetSuppressions(scanID)
	if err != nil {
		return nil, err
	}

	return &audit.Context{
		Scan:         scan,
		RuleSet:      e.set,
		Modules:      modules,
		Assignments:  assignments,
		Graph:        e.buildGraph(modules),
		Todos:        todos,
		Suppressions: sups,
	}, nil
}

// buildGraph assembles the dependency graph from declared depends_on edges.
// References to unknown modules are logged and dropped.
func (e *Engine) buildGraph(modules []*core.Module) *dag.Graph {
	g := dag.New()
	for _, m := range modules {
		g.AddNode(m.Path)
	}
	for _, m := range modules {
		for _, dep := range m.DependsOn {
			if !g.Has(dep) {
				e.logger.Debug("dropping edge to unknown module", "module", m.Path, "depends_on", dep)
				continue
			}
			if err := g.AddDependency(m.Path, dep); err != nil {
				e.logger.Debug("dropping invalid edge", "module", m.Path, "depends_on", dep, "error", err)
			}
		}
	}
	return g
}

// Plan derives the move plan for a scan: every promoted or pinned module that
// is not already under its star's root gets a move, ordered so dependencies
// relocate before their dependents. Modules caught in a dependency cycle are
// planned as blocked.
func (e *Engine) Plan(ctx context.Context, scanID string) ([]*core.Move, error) {
	snapshot, err := e.Snapshot(ctx, scanID)
	if err != nil {
		return nil, err
	}

	type pending struct {
		assignment *core.Assignment
		target     string
	}
	candidates := make(map[string]pending)
	for _, a := range snapshot.Assignments {
		if a.Status != core.StatusPromote && a.Status != core.StatusPinned {
			continue
		}
		star := e.set.StarByName(a.Star)
		if star == nil || star.Root == "" {
			e.logger.Warn("star has no root, skipping move", "module", a.Module, "star", a.Star)
			continue
		}
		target := path.Join(star.Root, path.Base(a.Module))
		if a.Module == target || withinRoot(a.Module, star.Root) {
			continue
		}
		candidates[a.Module] = pending{assignment: a, target: target}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	moving := make(map[string]bool, len(candidates))
	for module := range candidates {
		moving[module] = true
	}
	order, blocked := moveOrder(snapshot.Graph, moving)

	moves := make([]*core.Move, 0, len(candidates))
	for _, module := range order {
		p := candidates[module]
		move := &core.Move{
			ScanID: scanID,
			Module: module,
			Star:   p.assignment.Star,
			From:   module,
			To:     p.target,
			Status: core.MoveStatusPlanned,
		}
		if reason, ok := blocked[module]; ok {
			move.Status = core.MoveStatusBlocked
			move.Reason = reason
		}
		moves = append(moves, move)
	}

	if err := e.store.SaveMoves(moves); err != nil {
		return nil, err
	}
	e.logger.Info("move plan saved", "scan", scanID, "moves", len(moves), "blocked", len(blocked))
	return moves, nil
}

// moveOrder returns the moving modules in dependency order and the subset
// that cannot move because of a cycle.
func moveOrder(g *dag.Graph, moving map[string]bool) ([]string, map[string]string) {
	blocked := make(map[string]string)

	topo, err := g.TopoSort()
	if err != nil {
		cycle := g.FindCycle()
		reason := "dependency cycle: " + strings.Join(cycle, " -> ")
		for _, module := range cycle {
			if moving[module] {
				blocked[module] = reason
			}
		}
		return sortedKeys(moving), blocked
	}

	order := make([]string, 0, len(moving))
	for _, module := range topo {
		if moving[module] {
			order = append(order, module)
		}
	}
	// Modules absent from the graph still move, after everything ordered.
	for _, module := range sortedKeys(moving) {
		if !g.Has(module) {
			order = append(order, module)
		}
	}
	return order, blocked
}

func withinRoot(module, root string) bool {
	if module == root {
		return true
	}
	return len(module) > len(root) && module[:len(root)] == root && module[len(root)] == '/'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
