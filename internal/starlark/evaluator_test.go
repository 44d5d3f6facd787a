package starlark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/pkg/core"
)

const predicateSrc = `
MIN_LINES = 500

def handles_dreams(module):
    return "dream" in module.capabilities

def is_large(module):
    return module.line_count > MIN_LINES

def owned_by(module):
    return module.owner != ""

def returns_string(module):
    return "oops"

def crashes(module):
    fail("deliberate failure")
`

func loadTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	ev, err := Load("predicates.star", []byte(predicateSrc))
	require.NoError(t, err)
	return ev
}

func TestLoadCollectsFunctions(t *testing.T) {
	ev := loadTestEvaluator(t)

	assert.True(t, ev.Has("handles_dreams"))
	assert.True(t, ev.Has("is_large"))
	assert.False(t, ev.Has("MIN_LINES"), "constants are not predicates")
	assert.False(t, ev.Has("missing"))

	assert.Equal(t, []string{"crashes", "handles_dreams", "is_large", "owned_by", "returns_string"},
		ev.Functions())
}

func TestEvalBooleanResults(t *testing.T) {
	ev := loadTestEvaluator(t)

	dreamer := &core.Module{Path: "lukhas/dream/engine", Capabilities: []string{"dream", "symbolic"}}
	ok, err := ev.Eval("handles_dreams", dreamer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval("handles_dreams", &core.Module{Path: "lukhas/memory/fold"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ev.Eval("is_large", &core.Module{LineCount: 501})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ev.Eval("owned_by", &core.Module{Owner: "core-team"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvalErrors(t *testing.T) {
	ev := loadTestEvaluator(t)

	_, err := ev.Eval("missing", &core.Module{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined")

	_, err = ev.Eval("returns_string", &core.Module{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want bool")

	_, err = ev.Eval("crashes", &core.Module{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
}

func TestLoadSyntaxError(t *testing.T) {
	_, err := Load("bad.star", []byte("def broken(\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.star")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "predicates.star")
	require.NoError(t, os.WriteFile(path, []byte(predicateSrc), 0o644))

	ev, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, ev.Has("handles_dreams"))

	_, err = LoadFile(filepath.Join(dir, "nope.star"))
	require.Error(t, err)
}

func TestThreadPoolReuse(t *testing.T) {
	pool := NewThreadPool(2)
	assert.Equal(t, 0, pool.Size())

	t1 := pool.Get("one")
	t2 := pool.Get("two")
	t3 := pool.Get("three")
	pool.Put(t1)
	pool.Put(t2)
	pool.Put(t3) // discarded, pool is full
	assert.Equal(t, 2, pool.Size())

	reused := pool.Get("again")
	assert.Same(t, t2, reused)
	assert.Equal(t, "again", reused.Name)
}
