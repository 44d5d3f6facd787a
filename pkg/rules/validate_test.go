package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/pkg/core"
)

func TestValidateCleanRuleSet(t *testing.T) {
	issues := Validate(testRuleSet())
	assert.Empty(t, issues)
}

func TestValidateReportsAllProblems(t *testing.T) {
	set := &RuleSet{
		ConfidenceThreshold: 1.5,
		PromotionMargin:     -0.1,
		DefaultWeights:      map[string]float64{"path": 2.0, "bogus": 0.5},
		Stars: []StarDef{
			{Name: "guardian", Root: "stars/guardian"},
			{Name: "guardian", Root: "stars/guardian2"},
			{Name: "rootless"},
			{Name: "lonely", Root: "stars/lonely"},
		},
		Rules: []RuleDef{
			{ID: "R1", Star: "guardian", Signal: core.SignalPath, Pattern: "("},
			{ID: "R1", Star: "guardian", Signal: core.SignalPath, Pattern: "ok"},
			{ID: "R2", Star: "nowhere", Signal: core.SignalPath, Pattern: "x"},
			{ID: "R3", Star: "guardian", Signal: "telepathy", Pattern: "x"},
			{ID: "R4", Star: "guardian", Signal: core.SignalCapability, Pattern: ""},
			{ID: "R5", Star: "guardian", Signal: core.SignalPredicate},
			{ID: "R6", Star: "guardian", Signal: core.SignalPath, Pattern: "x", Weight: weight(1.2)},
			{ID: "R7", Star: "guardian", Signal: core.SignalPath, Pattern: "x", Override: true},
			{ID: "R8", Star: "rootless", Signal: core.SignalOwner, Pattern: "team-x"},
		},
	}

	issues := Validate(set)
	require.NotEmpty(t, issues)
	assert.True(t, HasErrors(issues))

	messages := make([]string, len(issues))
	for i, iss := range issues {
		messages[i] = iss.String()
	}

	expectSubstrings := []string{
		"confidence_threshold",
		"promotion_margin",
		"unknown signal kind \"bogus\"",
		"default weight for \"path\"",
		"duplicate star name",
		"no root directory",
		"invalid pattern",
		"duplicate rule id",
		"unknown star \"nowhere\"",
		"unknown signal kind \"telepathy\"",
		"empty pattern",
		"predicate rule has no function",
		"weight 1.20",
		"override is only valid",
		"never be assigned", // lonely star has no rules
	}
	for _, want := range expectSubstrings {
		found := false
		for _, msg := range messages {
			if strings.Contains(msg, want) {
				found = true
				break
			}
		}
		assert.True(t, found, "expected an issue containing %q, got %v", want, messages)
	}
}

func TestValidateSeverities(t *testing.T) {
	set := testRuleSet()
	set.Stars = append(set.Stars, StarDef{Name: "idle", Root: "stars/idle"})
	issues := Validate(set)

	require.Len(t, issues, 1)
	assert.Equal(t, core.SeverityInfo, issues[0].Severity)
	assert.Equal(t, "idle", issues[0].Star)
}

func TestCoverageReportsUnmatchedRules(t *testing.T) {
	eng, err := Compile(testRuleSet())
	require.NoError(t, err)

	modules := []*core.Module{
		{Path: "core/guardian/pdp", Capabilities: []string{"policy_decision"}},
		{Path: "labs/scratch"},
	}

	issues := eng.Coverage(modules)
	require.Len(t, issues, 3)

	unmatched := make(map[string]bool)
	for _, iss := range issues {
		assert.Equal(t, core.SeverityInfo, iss.Severity)
		assert.Contains(t, iss.Message, "matched no")
		unmatched[iss.RuleID] = true
	}
	assert.True(t, unmatched["MEM-PATH-01"])
	assert.True(t, unmatched["MEM-CAP-01"])
	assert.True(t, unmatched["MEM-OWN-01"])
}

func TestCoverageSkipsPredicateRulesWithoutEvaluator(t *testing.T) {
	set := testRuleSet()
	set.Rules = append(set.Rules, RuleDef{
		ID: "MEM-PRED-01", Star: "memory", Signal: core.SignalPredicate, Function: "handles_dreams",
	})

	eng, err := Compile(set)
	require.NoError(t, err)

	issues := eng.Coverage([]*core.Module{
		{Path: "core/guardian/pdp", Owner: "team-memory", Capabilities: []string{"policy_decision", "memory_fold"}},
		{Path: "lukhas/memory/fold"},
	})
	assert.Empty(t, issues)
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Issue{{Severity: core.SeverityWarning}}))
	assert.True(t, HasErrors([]Issue{{Severity: core.SeverityWarning}, {Severity: core.SeverityError}}))
}
