package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/internal/dag"
	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"
)

func unhealthyContext(t *testing.T) *audit.Context {
	t.Helper()

	g := dag.New()
	g.AddNode("lukhas/cycle/a")
	g.AddNode("lukhas/cycle/b")
	g.AddNode("lukhas/lonely")
	require.NoError(t, g.AddDependency("lukhas/cycle/a", "lukhas/cycle/b"))
	require.NoError(t, g.AddDependency("lukhas/cycle/b", "lukhas/cycle/a"))

	todos := make([]*core.TodoItem, 0, 6)
	for i := 0; i < 6; i++ {
		todos = append(todos, &core.TodoItem{
			Module: "lukhas/cycle/a", File: "lukhas/cycle/a/main.py", Line: i + 1, Marker: "TODO",
		})
	}

	return &audit.Context{
		Scan:    &core.Scan{ID: "scan-1"},
		RuleSet: &rules.RuleSet{ConfidenceThreshold: 0.70, PromotionMargin: 0.10},
		Modules: []*core.Module{
			{Path: "lukhas/cycle/a", Declared: true},
			{Path: "lukhas/cycle/b", Declared: true, Owner: "core-team"},
			{Path: "lukhas/lonely"},
		},
		Assignments: []*core.Assignment{
			{Module: "lukhas/cycle/a", Star: "memory", Confidence: 0.45, Status: core.StatusReview, Margin: 0.45},
			{Module: "lukhas/cycle/b", Star: "vision", Confidence: 0.80, Status: core.StatusReview, Margin: 0.05},
			{Module: "lukhas/lonely", Status: core.StatusUnassigned},
		},
		Graph: g,
		Todos: todos,
		Suppressions: []*core.Suppression{
			{Module: "lukhas/cycle/a", File: "lukhas/cycle/a/main.py", Line: 3, Directive: "# noqa", Justified: true, Reason: "long line"},
			{Module: "lukhas/cycle/b", File: "lukhas/cycle/b/util.py", Line: 7, Directive: "# nosec"},
		},
	}
}

func findingsByCheck(findings []*core.Finding) map[string][]*core.Finding {
	out := make(map[string][]*core.Finding)
	for _, f := range findings {
		out[f.CheckID] = append(out[f.CheckID], f)
	}
	return out
}

func TestBuiltinChecksFlagProblems(t *testing.T) {
	ctx := unhealthyContext(t)
	findings := audit.NewAnalyzer(nil).Analyze(ctx)
	byCheck := findingsByCheck(findings)

	require.Len(t, byCheck["SL01"], 1)
	assert.Equal(t, "lukhas/lonely", byCheck["SL01"][0].Module)
	assert.Equal(t, core.SeverityWarning, byCheck["SL01"][0].Severity)

	require.Len(t, byCheck["SL02"], 1)
	assert.Equal(t, "lukhas/cycle/a", byCheck["SL02"][0].Module)
	assert.Equal(t, core.SeverityInfo, byCheck["SL02"][0].Severity)
	assert.Contains(t, byCheck["SL02"][0].Message, "0.45")
	assert.Contains(t, byCheck["SL02"][0].Message, "0.70")

	require.Len(t, byCheck["SL03"], 1)
	assert.Equal(t, "lukhas/cycle/b", byCheck["SL03"][0].Module)

	require.Len(t, byCheck["SL04"], 1)
	assert.Equal(t, "lukhas/cycle/a", byCheck["SL04"][0].Module)

	require.Len(t, byCheck["SL05"], 1)
	assert.Equal(t, core.SeverityError, byCheck["SL05"][0].Severity)
	assert.Contains(t, byCheck["SL05"][0].Message, "->")

	require.Len(t, byCheck["SL06"], 1)
	assert.Equal(t, "lukhas/lonely", byCheck["SL06"][0].Module)
	assert.Equal(t, core.SeverityHint, byCheck["SL06"][0].Severity)

	require.Len(t, byCheck["SL07"], 1)
	assert.Equal(t, "lukhas/cycle/b", byCheck["SL07"][0].Module)
	assert.Equal(t, core.SeverityWarning, byCheck["SL07"][0].Severity)
	assert.Equal(t, "1 unjustified suppression directives (limit 0)", byCheck["SL07"][0].Message)

	require.Len(t, byCheck["SL08"], 1)
	assert.Equal(t, "6 TODO markers (limit 5)", byCheck["SL08"][0].Message)

	require.Len(t, byCheck["SL10"], 1)
	assert.Equal(t, "lukhas/lonely", byCheck["SL10"][0].Module)
	assert.Equal(t, core.SeverityHint, byCheck["SL10"][0].Severity)

	// 1 error, 4 warnings, 2 info, 2 hints.
	assert.Equal(t, 76, audit.HealthScore(findings))
}

func TestHealthyContextIsClean(t *testing.T) {
	g := dag.New()
	g.AddNode("lukhas/memory/fold")
	g.AddNode("lukhas/core")
	require.NoError(t, g.AddDependency("lukhas/memory/fold", "lukhas/core"))

	ctx := &audit.Context{
		Scan:    &core.Scan{ID: "scan-2"},
		RuleSet: &rules.RuleSet{},
		Modules: []*core.Module{
			{Path: "lukhas/memory/fold", Declared: true, Owner: "memory-team"},
			{Path: "lukhas/core", Declared: true, Owner: "core-team"},
		},
		Assignments: []*core.Assignment{
			{Module: "lukhas/memory/fold", Star: "memory", Confidence: 0.83, Status: core.StatusPromote, Margin: 0.40},
			{Module: "lukhas/core", Star: "nucleus", Confidence: 0.90, Status: core.StatusPinned, Margin: 0.90},
		},
		Graph: g,
	}

	findings := audit.NewAnalyzer(nil).Analyze(ctx)
	assert.Empty(t, findings)
	assert.Equal(t, 100, audit.HealthScore(findings))
}

func TestTodoDebtRespectsConfiguredLimit(t *testing.T) {
	config := audit.DefaultConfig()
	config.MaxTodosPerModule = 2

	ctx := &audit.Context{
		RuleSet: &rules.RuleSet{},
		Todos: []*core.TodoItem{
			{Module: "a", File: "a/x.py", Line: 1, Marker: "TODO"},
			{Module: "a", File: "a/x.py", Line: 2, Marker: "FIXME"},
			{Module: "a", File: "a/x.py", Line: 3, Marker: "HACK"},
			{Module: "b", File: "b/y.py", Line: 1, Marker: "TODO"},
		},
	}

	findings := audit.NewAnalyzer(&config).Analyze(ctx)
	byCheck := findingsByCheck(findings)
	require.Len(t, byCheck["SL08"], 1)
	assert.Equal(t, "a", byCheck["SL08"][0].Module)
	assert.Equal(t, "3 TODO markers (limit 2)", byCheck["SL08"][0].Message)
}

func TestUnjustifiedSuppressionsRespectConfiguredLimit(t *testing.T) {
	config := audit.DefaultConfig()
	config.MaxSuppressionsPerModule = 1

	ctx := &audit.Context{
		RuleSet: &rules.RuleSet{},
		Suppressions: []*core.Suppression{
			{Module: "a", File: "a/x.py", Line: 1, Directive: "# noqa"},
			{Module: "a", File: "a/x.py", Line: 9, Directive: "# nosec"},
			{Module: "b", File: "b/y.py", Line: 4, Directive: "# noqa"},
			{Module: "c", File: "c/z.py", Line: 2, Directive: "# noqa", Justified: true, Reason: "generated"},
		},
	}

	findings := audit.NewAnalyzer(&config).Analyze(ctx)
	byCheck := findingsByCheck(findings)
	require.Len(t, byCheck["SL07"], 1)
	assert.Equal(t, "a", byCheck["SL07"][0].Module)
	assert.Equal(t, "2 unjustified suppression directives (limit 1)", byCheck["SL07"][0].Message)
}

func TestStrayFilesFlagModulesOutsideStarRoot(t *testing.T) {
	set := &rules.RuleSet{
		Stars: []rules.StarDef{
			{Name: "memory", Root: "stars/memory"},
			{Name: "vision", Root: "stars/vision"},
			{Name: "ghost"}, // no root, cannot be checked
		},
	}
	ctx := &audit.Context{
		Scan:    &core.Scan{ID: "scan-3"},
		RuleSet: set,
		Modules: []*core.Module{
			{Path: "lukhas/memory/fold", Declared: true, Owner: "memory-team", FileCount: 4},
			{Path: "stars/vision/iris", Declared: true, Owner: "vision-team", FileCount: 2},
			{Path: "lukhas/haunted", Declared: true, Owner: "ops-team", FileCount: 1},
		},
		Assignments: []*core.Assignment{
			{Module: "lukhas/memory/fold", Star: "memory", Confidence: 0.83, Status: core.StatusPromote, Margin: 0.40},
			{Module: "stars/vision/iris", Star: "vision", Confidence: 0.90, Status: core.StatusPinned, Margin: 0.90},
			{Module: "lukhas/haunted", Star: "ghost", Confidence: 0.95, Status: core.StatusPinned, Margin: 0.95},
		},
	}

	findings := audit.NewAnalyzer(nil).Analyze(ctx)
	byCheck := findingsByCheck(findings)
	require.Len(t, byCheck["SL09"], 1)
	assert.Equal(t, "lukhas/memory/fold", byCheck["SL09"][0].Module)
	assert.Equal(t, core.SeverityWarning, byCheck["SL09"][0].Severity)
	assert.Equal(t, `4 files assigned to star "memory" sit outside its root "stars/memory"`, byCheck["SL09"][0].Message)
}
