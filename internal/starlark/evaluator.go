// Package starlark loads user-defined predicate functions from a Starlark
// file and evaluates them against modules. Predicate rules in the rule set
// reference these functions by name.
package starlark

import (
	"fmt"
	"os"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

// Evaluator holds the callable globals of a loaded predicate file.
// Globals are frozen after load, so evaluation is safe from multiple
// goroutines.
type Evaluator struct {
	name  string
	funcs map[string]starlark.Callable
	pool  *ThreadPool
}

var _ rules.PredicateEvaluator = (*Evaluator)(nil)

// LoadFile loads predicate functions from a .star file on disk.
func LoadFile(path string) (*Evaluator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read predicate file: %w", err)
	}
	return Load(path, src)
}

// Load executes the source and collects every top-level function as a
// predicate. name is used in error messages.
func Load(name string, src []byte) (*Evaluator, error) {
	thread := &starlark.Thread{Name: "load:" + name}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load predicates from %s: %w", name, err)
	}

	funcs := make(map[string]starlark.Callable)
	for global, value := range globals {
		if fn, ok := value.(starlark.Callable); ok {
			funcs[global] = fn
		}
	}

	return &Evaluator{
		name:  name,
		funcs: funcs,
		pool:  NewThreadPool(defaultPoolSize),
	}, nil
}

// Has reports whether a predicate with this name is defined.
func (e *Evaluator) Has(function string) bool {
	_, ok := e.funcs[function]
	return ok
}

// Functions returns the defined predicate names, sorted.
func (e *Evaluator) Functions() []string {
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eval calls the named predicate with the module and returns its boolean
// result. Non-bool return values are an error, not a truthiness coercion.
func (e *Evaluator) Eval(function string, module *core.Module) (bool, error) {
	fn, ok := e.funcs[function]
	if !ok {
		return false, fmt.Errorf("predicate %q is not defined in %s", function, e.name)
	}

	thread := e.pool.Get("predicate:" + function)
	defer e.pool.Put(thread)

	result, err := starlark.Call(thread, fn, starlark.Tuple{ModuleValue(module)}, nil)
	if err != nil {
		return false, fmt.Errorf("predicate %q: %w", function, err)
	}

	b, ok := result.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("predicate %q returned %s, want bool", function, result.Type())
	}
	return bool(b), nil
}

// ModuleValue exposes a module to Starlark as a struct with the fields
// predicates are allowed to see.
func ModuleValue(m *core.Module) starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("module"), starlark.StringDict{
		"path":         starlark.String(m.Path),
		"name":         starlark.String(m.Name),
		"owner":        starlark.String(m.Owner),
		"node":         starlark.String(m.Node),
		"declared":     starlark.Bool(m.Declared),
		"capabilities": stringList(m.Capabilities),
		"depends_on":   stringList(m.DependsOn),
		"tags":         stringList(m.Tags),
		"file_count":   starlark.MakeInt(m.FileCount),
		"line_count":   starlark.MakeInt(m.LineCount),
	})
}

func stringList(values []string) *starlark.List {
	list := make([]starlark.Value, len(values))
	for i, v := range values {
		list[i] = starlark.String(v)
	}
	return starlark.NewList(list)
}
