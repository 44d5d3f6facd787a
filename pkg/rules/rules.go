// Package rules implements the star assignment rule engine: a
// configuration-driven classifier that scores module-to-star affinity from
// weighted path/capability/node/owner/predicate signals and decides
// promotion against a confidence threshold.
package rules

import (
	"github.com/lukhas-labs/starlift/pkg/core"
)

// Defaults applied when the rule file omits the corresponding field.
const (
	// DefaultConfidenceThreshold is the auto-promotion cutoff.
	DefaultConfidenceThreshold = 0.70
	// DefaultPromotionMargin is the minimum gap to the runner-up star.
	DefaultPromotionMargin = 0.10
)

// DefaultWeights are the per-signal weights used when a rule has no explicit
// weight. The path/capability values come straight from the star promotion
// heuristic the tool replaces.
var DefaultWeights = map[core.SignalKind]float64{
	core.SignalPath:       0.4,
	core.SignalCapability: 0.6,
	core.SignalNode:       0.5,
	core.SignalOwner:      0.3,
	core.SignalPredicate:  0.6,
}

// RuleSet is the on-disk schema of configs/star_rules.json (or .yaml).
type RuleSet struct {
	Version             int                `json:"version" yaml:"version"`
	ConfidenceThreshold float64            `json:"confidence_threshold,omitempty" yaml:"confidence_threshold,omitempty"`
	PromotionMargin     float64            `json:"promotion_margin,omitempty" yaml:"promotion_margin,omitempty"`
	DefaultWeights      map[string]float64 `json:"default_weights,omitempty" yaml:"default_weights,omitempty"`
	Stars               []StarDef          `json:"stars" yaml:"stars"`
	Rules               []RuleDef          `json:"rules" yaml:"rules"`
}

// StarDef declares one star and the directory promoted modules live under.
type StarDef struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Root        string `json:"root" yaml:"root"`
}

// RuleDef is one scoring rule.
type RuleDef struct {
	// ID is the unique rule identifier, e.g. "GRD-PATH-01".
	ID string `json:"id" yaml:"id"`

	// Star names the star this rule votes for.
	Star string `json:"star" yaml:"star"`

	// Signal selects what the rule matches against.
	Signal core.SignalKind `json:"signal" yaml:"signal"`

	// Pattern is a Go regexp for path signals, and a case-insensitive
	// literal for capability/node/owner signals. Unused for predicates.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Function names the Starlark predicate for predicate signals.
	Function string `json:"function,omitempty" yaml:"function,omitempty"`

	// Weight overrides the default weight for the signal kind.
	// Must be in (0, 1] when set.
	Weight *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`

	// Override pins the module to this star when the rule matches.
	// Only valid on capability and predicate signals.
	Override bool `json:"override,omitempty" yaml:"override,omitempty"`

	// Reason documents why the rule exists; carried into reports.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// EffectiveThreshold returns the configured threshold or the default.
func (s *RuleSet) EffectiveThreshold() float64 {
	if s.ConfidenceThreshold > 0 {
		return s.ConfidenceThreshold
	}
	return DefaultConfidenceThreshold
}

// EffectiveMargin returns the configured promotion margin or the default.
func (s *RuleSet) EffectiveMargin() float64 {
	if s.PromotionMargin > 0 {
		return s.PromotionMargin
	}
	return DefaultPromotionMargin
}

// WeightFor resolves the weight for a rule: explicit weight, then the rule
// set's default_weights entry, then the package default.
func (s *RuleSet) WeightFor(r *RuleDef) float64 {
	if r.Weight != nil {
		return *r.Weight
	}
	if s.DefaultWeights != nil {
		if w, ok := s.DefaultWeights[string(r.Signal)]; ok {
			return w
		}
	}
	return DefaultWeights[r.Signal]
}

// StarByName returns the star definition with the given name, or nil.
func (s *RuleSet) StarByName(name string) *StarDef {
	for i := range s.Stars {
		if s.Stars[i].Name == name {
			return &s.Stars[i]
		}
	}
	return nil
}
