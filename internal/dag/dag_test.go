package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(t *testing.T, deps map[string][]string) *Graph {
	t.Helper()
	g := New()
	for id := range deps {
		g.AddNode(id)
	}
	for id, list := range deps {
		for _, d := range list {
			require.NoError(t, g.AddDependency(id, d))
		}
	}
	return g
}

func TestTopoSortOrdersDependenciesFirst(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"core/memory":   nil,
		"core/guardian": {"core/memory"},
		"serve/api":     {"core/guardian", "core/memory"},
	})

	order, err := g.TopoSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"core/memory", "core/guardian", "serve/api"}, order)
}

func TestTopoSortIsDeterministicAmongReadyNodes(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"zeta":  nil,
		"alpha": nil,
		"mid":   {"alpha", "zeta"},
	})

	for range 5 {
		order, err := g.TopoSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta", "mid"}, order)
	}
}

func TestFindCycleReturnsPath(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	})

	cycle := g.FindCycle()
	require.NotNil(t, cycle)
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.Len(t, cycle, 4)

	_, err := g.TopoSort()
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "->")
}

func TestAddDependencyValidation(t *testing.T) {
	g := New()
	g.AddNode("a")

	assert.Error(t, g.AddDependency("a", "missing"))
	assert.Error(t, g.AddDependency("missing", "a"))
	assert.Error(t, g.AddDependency("a", "a"))
}

func TestUpstreamDownstream(t *testing.T) {
	g := buildGraph(t, map[string][]string{
		"base":   nil,
		"mid":    {"base"},
		"top":    {"mid"},
		"orphan": nil,
	})

	assert.Equal(t, []string{"base", "mid"}, g.Upstream("top"))
	assert.Equal(t, []string{"mid", "top"}, g.Downstream("base"))
	assert.Empty(t, g.Upstream("orphan"))
	assert.True(t, g.IsOrphan("orphan"))
	assert.False(t, g.IsOrphan("mid"))
}

func TestDuplicateEdgesIgnored(t *testing.T) {
	g := New()
	g.AddNode("a")
	g.AddNode("b")
	require.NoError(t, g.AddDependency("b", "a"))
	require.NoError(t, g.AddDependency("b", "a"))

	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"a"}, g.Dependencies("b"))
}
