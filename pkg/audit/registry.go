package audit

import (
	"sort"
	"sync"
)

// globalRegistry is the single global registry for audit checks.
var globalRegistry = &Registry{
	checks: make(map[string]CheckDef),
}

// Registry stores registered audit checks for discovery.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]CheckDef // keyed by ID
}

// Register adds a check to the global registry.
// Call this from init() functions in check packages.
func Register(check CheckDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.checks[check.ID] = check
}

// GetAll returns all registered checks ordered by ID.
func GetAll() []CheckDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	checks := make([]CheckDef, 0, len(globalRegistry.checks))
	for _, check := range globalRegistry.checks {
		checks = append(checks, check)
	}
	sort.Slice(checks, func(i, j int) bool { return checks[i].ID < checks[j].ID })
	return checks
}

// GetByID returns a check by its ID.
func GetByID(id string) (CheckDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	check, ok := globalRegistry.checks[id]
	return check, ok
}

// GetByGroup returns all checks in a specific group, ordered by ID.
func GetByGroup(group string) []CheckDef {
	var checks []CheckDef
	for _, check := range GetAll() {
		if check.Group == group {
			checks = append(checks, check)
		}
	}
	return checks
}

// Count returns the number of registered checks.
func Count() int {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return len(globalRegistry.checks)
}

// Clear removes all checks from the registry. Used for testing.
func Clear() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.checks = make(map[string]CheckDef)
}
