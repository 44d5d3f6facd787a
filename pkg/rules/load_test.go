package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/pkg/core"
)

const rulesJSON = `{
  "version": 1,
  "confidence_threshold": 0.7,
  "promotion_margin": 0.1,
  "default_weights": {"path": 0.4, "capability": 0.6},
  "stars": [
    {"name": "guardian", "description": "Policy enforcement", "root": "stars/guardian"}
  ],
  "rules": [
    {"id": "GRD-PATH-01", "star": "guardian", "signal": "path", "pattern": "(^|/)guardian(/|$)", "reason": "canonical guardian tree"},
    {"id": "GRD-CAP-01", "star": "guardian", "signal": "capability", "pattern": "policy_decision", "override": true}
  ]
}`

const rulesYAML = `version: 1
confidence_threshold: 0.7
stars:
  - name: guardian
    root: stars/guardian
rules:
  - id: GRD-PATH-01
    star: guardian
    signal: path
    pattern: (^|/)guardian(/|$)
`

func TestParseJSON(t *testing.T) {
	set, err := Parse([]byte(rulesJSON), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 1, set.Version)
	assert.InDelta(t, 0.7, set.ConfidenceThreshold, 1e-9)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, core.SignalCapability, set.Rules[1].Signal)
	assert.True(t, set.Rules[1].Override)
	assert.InDelta(t, 0.4, set.WeightFor(&set.Rules[0]), 1e-9)
}

func TestParseYAML(t *testing.T) {
	set, err := Parse([]byte(rulesYAML), FormatYAML)
	require.NoError(t, err)

	require.Len(t, set.Stars, 1)
	assert.Equal(t, "stars/guardian", set.Stars[0].Root)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"version": 1, "stras": []}`), FormatJSON)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	_, err = Parse([]byte("version: 1\nstras: []\n"), FormatYAML)
	require.Error(t, err)
}

func TestParseDefaultsVersion(t *testing.T) {
	set, err := Parse([]byte(`{"stars": [], "rules": []}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Version)
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "star_rules.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(rulesJSON), 0o600))
	set, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Len(t, set.Rules, 2)

	yamlPath := filepath.Join(dir, "star_rules.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(rulesYAML), 0o600))
	set, err = Load(yamlPath)
	require.NoError(t, err)
	assert.Len(t, set.Rules, 1)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadReportsPathInParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestEffectiveDefaults(t *testing.T) {
	set := &RuleSet{}
	assert.InDelta(t, DefaultConfidenceThreshold, set.EffectiveThreshold(), 1e-9)
	assert.InDelta(t, DefaultPromotionMargin, set.EffectiveMargin(), 1e-9)

	r := &RuleDef{Signal: core.SignalNode}
	assert.InDelta(t, 0.5, set.WeightFor(r), 1e-9)
}
