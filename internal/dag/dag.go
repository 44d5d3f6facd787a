// Package dag provides the module dependency graph used by move planning
// and audit checks. It supports cycle detection with an explicit cycle path,
// deterministic topological ordering, and upstream/downstream closures.
package dag

import (
	"fmt"
	"sort"
	"strings"
)

// Graph is a directed graph of modules keyed by module path.
// Edges point from a dependency to its dependents.
type Graph struct {
	nodes      map[string]bool
	dependents map[string][]string // dependency -> dependents
	deps       map[string][]string // dependent -> dependencies
}

// CycleError is returned when an operation requires an acyclic graph.
type CycleError struct {
	// Path is the cycle, first node repeated at the end.
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Path, " -> "))
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:      make(map[string]bool),
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
	}
}

// AddNode registers a module path. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if !g.nodes[id] {
		g.nodes[id] = true
	}
}

// AddDependency records that `module` depends on `dependency`.
// Both nodes must exist; self-dependencies are rejected.
func (g *Graph) AddDependency(module, dependency string) error {
	if !g.nodes[module] {
		return fmt.Errorf("unknown module %q", module)
	}
	if !g.nodes[dependency] {
		return fmt.Errorf("unknown module %q", dependency)
	}
	if module == dependency {
		return fmt.Errorf("module %q depends on itself", module)
	}

	if !containsString(g.deps[module], dependency) {
		g.deps[module] = append(g.deps[module], dependency)
		sort.Strings(g.deps[module])
	}
	if !containsString(g.dependents[dependency], module) {
		g.dependents[dependency] = append(g.dependents[dependency], module)
		sort.Strings(g.dependents[dependency])
	}
	return nil
}

// Has reports whether the module is in the graph.
func (g *Graph) Has(id string) bool { return g.nodes[id] }

// Dependencies returns the direct dependencies of a module, sorted.
func (g *Graph) Dependencies(id string) []string { return g.deps[id] }

// Dependents returns the direct dependents of a module, sorted.
func (g *Graph) Dependents(id string) []string { return g.dependents[id] }

// Nodes returns all module paths, sorted.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, d := range g.deps {
		n += len(d)
	}
	return n
}

// IsOrphan reports whether the module has no edges in either direction.
func (g *Graph) IsOrphan(id string) bool {
	return len(g.deps[id]) == 0 && len(g.dependents[id]) == 0
}

// FindCycle returns a cycle as a path (first node repeated at the end),
// or nil when the graph is acyclic. Traversal order is deterministic.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(g.nodes))
	parent := make(map[string]string)

	var cycle []string
	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = inStack
		for _, dep := range g.deps[id] {
			switch state[dep] {
			case unvisited:
				parent[dep] = id
				if dfs(dep) {
					return true
				}
			case inStack:
				cycle = []string{dep}
				for cur := id; cur != dep; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, dep)
				// Reverse into dependency order.
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return true
			}
		}
		state[id] = done
		return false
	}

	for _, id := range g.Nodes() {
		if state[id] == unvisited && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopoSort returns module paths with dependencies before dependents.
// Among ready nodes the order is lexicographic, so output is stable across
// runs. Returns *CycleError when the graph has a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = len(g.deps[id])
	}

	var ready []string
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, id)

		var unlocked []string
		for _, dep := range g.dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				unlocked = append(unlocked, dep)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}
	return result, nil
}

// Upstream returns the transitive dependencies of a module, sorted.
func (g *Graph) Upstream(id string) []string {
	return g.closure(id, g.deps)
}

// Downstream returns the transitive dependents of a module, sorted.
func (g *Graph) Downstream(id string) []string {
	return g.closure(id, g.dependents)
}

func (g *Graph) closure(id string, adjacency map[string][]string) []string {
	seen := map[string]bool{id: true}
	stack := append([]string(nil), adjacency[id]...)
	var result []string
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		result = append(result, cur)
		stack = append(stack, adjacency[cur]...)
	}
	sort.Strings(result)
	return result
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
