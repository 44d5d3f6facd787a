package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/internal/dag"
	"github.com/lukhas-labs/starlift/internal/state"
	"github.com/lukhas-labs/starlift/internal/testutil"
	_ "github.com/lukhas-labs/starlift/pkg/audit/checks"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

func weight(w float64) *float64 { return &w }

func testRuleSet() *rules.RuleSet {
	return &rules.RuleSet{
		Version: 1,
		Stars: []rules.StarDef{
			{Name: "memory", Root: "stars/memory"},
			{Name: "vision", Root: "stars/vision"},
		},
		Rules: []rules.RuleDef{
			{ID: "MEM-PATH-01", Star: "memory", Signal: core.SignalPath, Pattern: `^lukhas/memory/`, Weight: weight(0.4)},
			{ID: "MEM-CAP-01", Star: "memory", Signal: core.SignalCapability, Pattern: "fold", Weight: weight(0.6)},
			{ID: "VIS-CAP-01", Star: "vision", Signal: core.SignalCapability, Pattern: "vision_core", Weight: weight(0.6), Override: true},
		},
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	store, err := state.Open(state.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })

	eng, err := New(Config{
		Root:    root,
		RuleSet: testRuleSet(),
		Store:   store,
		Logger:  logger,
	})
	require.NoError(t, err)
	return eng
}

func TestNewRejectsBadWiring(t *testing.T) {
	_, err := New(Config{RuleSet: testRuleSet()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store")

	store, err := state.Open(state.DriverSQLite, ":memory:", nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = New(Config{Store: store})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule set")

	bad := testRuleSet()
	bad.Rules[0].Pattern = `^lukhas/(` // invalid regex
	_, err = New(Config{Store: store, RuleSet: bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation errors")
}

func TestPipelineScanAssignAuditPlan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lukhas/memory/fold/module.yaml": "name: fold\nowner: memory-team\ncapabilities: [fold]\ndepends_on: [lukhas/shared/util]\n",
		"lukhas/memory/fold/main.py":     "def fold():\n    pass\n",
		"lukhas/vision/iris/module.yaml": "name: iris\nowner: vision-team\ncapabilities: [vision_core]\n",
		"lukhas/vision/iris/iris.py":     "class Iris:\n    pass\n",
		"lukhas/shared/util/helpers.py":  "def helper():\n    pass\n",
	})
	eng := newTestEngine(t, root)
	ctx := context.Background()

	scan, result, err := eng.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.ScanStatusCompleted, scan.Status)
	assert.Equal(t, 3, scan.ModulesTotal)
	assert.Equal(t, 2, scan.ModulesDeclared)
	assert.Len(t, result.Modules, 3)

	assignments, err := eng.Assign(ctx, scan.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 3)

	byModule := map[string]*core.Assignment{}
	for _, a := range assignments {
		byModule[a.Module] = a
	}
	fold := byModule["lukhas/memory/fold"]
	require.NotNil(t, fold)
	assert.Equal(t, core.StatusPromote, fold.Status)
	assert.Equal(t, "memory", fold.Star)
	assert.InDelta(t, 0.76, fold.Confidence, 1e-9)

	iris := byModule["lukhas/vision/iris"]
	require.NotNil(t, iris)
	assert.Equal(t, core.StatusPinned, iris.Status)
	assert.Equal(t, "vision", iris.Star)

	util := byModule["lukhas/shared/util"]
	require.NotNil(t, util)
	assert.Equal(t, core.StatusUnassigned, util.Status)

	findings, score, err := eng.Audit(ctx, scan.ID)
	require.NoError(t, err)

	checkIDs := map[string]bool{}
	for _, f := range findings {
		checkIDs[f.CheckID] = true
	}
	assert.True(t, checkIDs["SL01"], "unassigned module should be flagged")
	assert.True(t, checkIDs["SL09"], "promoted module still at its old location should be flagged")
	assert.True(t, checkIDs["SL10"], "undeclared module should be flagged")
	assert.Less(t, score, 100)
	assert.Greater(t, score, 80)

	moves, err := eng.Plan(ctx, scan.ID)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	// Neither move depends on the other, so topological order falls back to
	// the lexicographic ready queue: fold unlocks after util and sorts first.
	assert.Equal(t, "lukhas/memory/fold", moves[0].Module)
	assert.Equal(t, "stars/memory/fold", moves[0].To)
	assert.Equal(t, "lukhas/vision/iris", moves[1].Module)
	assert.Equal(t, "stars/vision/iris", moves[1].To)
	for _, m := range moves {
		assert.Equal(t, core.MoveStatusPlanned, m.Status)
	}

	// The plan is persisted in order.
	saved, err := eng.Store().GetMoves(scan.ID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, moves[0].Module, saved[0].Module)
}

func TestPlanSkipsModulesAlreadyInPlace(t *testing.T) {
	root := writeTree(t, map[string]string{
		"stars/memory/fold/module.yaml": "name: fold\nowner: memory-team\ncapabilities: [fold]\n",
		"stars/memory/fold/main.py":     "def fold():\n    pass\n",
	})
	set := testRuleSet()
	set.Rules[0].Pattern = `^stars/memory/`

	logger := testutil.NewTestLogger(t)
	store, err := state.Open(state.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	defer store.Close()

	eng, err := New(Config{Root: root, RuleSet: set, Store: store, Logger: logger})
	require.NoError(t, err)

	ctx := context.Background()
	scan, _, err := eng.Scan(ctx)
	require.NoError(t, err)
	_, err = eng.Assign(ctx, scan.ID)
	require.NoError(t, err)

	moves, err := eng.Plan(ctx, scan.ID)
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestMoveOrderBlocksCycles(t *testing.T) {
	g := dag.New()
	g.AddNode("a")
	g.AddNode("b")
	g.AddNode("c")
	require.NoError(t, g.AddDependency("a", "b"))
	require.NoError(t, g.AddDependency("b", "a"))

	moving := map[string]bool{"a": true, "b": true, "c": true}
	order, blocked := moveOrder(g, moving)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Contains(t, blocked["a"], "dependency cycle")
	assert.Contains(t, blocked["b"], "dependency cycle")
	assert.NotContains(t, blocked, "c")
}

func TestMoveOrderDependenciesFirst(t *testing.T) {
	g := dag.New()
	g.AddNode("base")
	g.AddNode("mid")
	g.AddNode("top")
	require.NoError(t, g.AddDependency("mid", "base"))
	require.NoError(t, g.AddDependency("top", "mid"))

	order, blocked := moveOrder(g, map[string]bool{"top": true, "base": true})
	assert.Empty(t, blocked)
	assert.Equal(t, []string{"base", "top"}, order)
}

func TestWithinRoot(t *testing.T) {
	assert.True(t, withinRoot("stars/memory/fold", "stars/memory"))
	assert.True(t, withinRoot("stars/memory", "stars/memory"))
	assert.False(t, withinRoot("stars/memoryx/fold", "stars/memory"))
	assert.False(t, withinRoot("lukhas/memory/fold", "stars/memory"))
}
