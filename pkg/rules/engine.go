package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// PredicateEvaluator evaluates named predicate functions against a module.
// Implemented by internal/starlark.
type PredicateEvaluator interface {
	// Has reports whether a function with this name is defined.
	Has(function string) bool
	// Eval calls the function with the module and returns its boolean result.
	Eval(function string, module *core.Module) (bool, error)
}

// Engine is a compiled rule set ready to score modules.
type Engine struct {
	set        *RuleSet
	threshold  float64
	margin     float64
	compiled   []compiledRule
	predicates PredicateEvaluator
}

type compiledRule struct {
	def    *RuleDef
	weight float64
	re     *regexp.Regexp // path signals only
	term   string         // lowercased literal for capability/node/owner
}

// Option configures engine compilation.
type Option func(*Engine)

// WithPredicates supplies the evaluator for predicate signals.
func WithPredicates(ev PredicateEvaluator) Option {
	return func(e *Engine) { e.predicates = ev }
}

// Compile turns a rule set into an Engine. Path patterns are compiled as Go
// regexps; an invalid pattern fails compilation (Validate reports the same
// problems without aborting on the first one).
func Compile(set *RuleSet, opts ...Option) (*Engine, error) {
	e := &Engine{
		set:       set,
		threshold: set.EffectiveThreshold(),
		margin:    set.EffectiveMargin(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := range set.Rules {
		def := &set.Rules[i]
		cr := compiledRule{def: def, weight: set.WeightFor(def)}

		switch def.Signal {
		case core.SignalPath:
			re, err := regexp.Compile(def.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %s: invalid pattern: %w", def.ID, err)
			}
			cr.re = re
		case core.SignalCapability, core.SignalNode, core.SignalOwner:
			cr.term = strings.ToLower(def.Pattern)
		case core.SignalPredicate:
			// Resolved at evaluation time against the predicate evaluator.
		default:
			return nil, fmt.Errorf("rule %s: unknown signal kind %q", def.ID, def.Signal)
		}

		e.compiled = append(e.compiled, cr)
	}

	return e, nil
}

// Threshold returns the effective confidence threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Margin returns the effective promotion margin.
func (e *Engine) Margin() float64 { return e.margin }

// RuleSet returns the underlying rule set.
func (e *Engine) RuleSet() *RuleSet { return e.set }

// Candidate is one star's score for a module.
type Candidate struct {
	Star       string        `json:"star"`
	Confidence float64       `json:"confidence"`
	Signals    []core.Signal `json:"signals"`
}

// match reports whether a compiled rule matches the module, plus a detail
// string describing the matched value.
func (e *Engine) match(cr *compiledRule, m *core.Module) (bool, string, error) {
	switch cr.def.Signal {
	case core.SignalPath:
		if cr.re.MatchString(m.Path) {
			return true, m.Path, nil
		}
	case core.SignalCapability:
		for _, cap := range m.Capabilities {
			if strings.ToLower(cap) == cr.term {
				return true, cap, nil
			}
		}
	case core.SignalNode:
		if m.Node != "" && strings.ToLower(m.Node) == cr.term {
			return true, m.Node, nil
		}
	case core.SignalOwner:
		if m.Owner != "" && strings.ToLower(m.Owner) == cr.term {
			return true, m.Owner, nil
		}
	case core.SignalPredicate:
		if e.predicates == nil {
			return false, "", fmt.Errorf("rule %s: predicate %q requires a predicates file", cr.def.ID, cr.def.Function)
		}
		ok, err := e.predicates.Eval(cr.def.Function, m)
		if err != nil {
			return false, "", fmt.Errorf("rule %s: %w", cr.def.ID, err)
		}
		if ok {
			return true, cr.def.Function, nil
		}
	}
	return false, "", nil
}

// Score evaluates every rule against the module and returns per-star
// candidates. Confidence combines matched rule weights with noisy-OR:
//
//	c = 1 - Π(1 - w_i)
//
// so independent weak signals accumulate but never exceed 1.
// Candidates are ordered confidence desc, signal count desc, star name asc.
func (e *Engine) Score(m *core.Module) ([]Candidate, error) {
	byStar := map[string][]core.Signal{}

	for i := range e.compiled {
		cr := &e.compiled[i]
		ok, detail, err := e.match(cr, m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		byStar[cr.def.Star] = append(byStar[cr.def.Star], core.Signal{
			RuleID: cr.def.ID,
			Kind:   cr.def.Signal,
			Weight: cr.weight,
			Detail: detail,
		})
	}

	candidates := make([]Candidate, 0, len(byStar))
	for star, signals := range byStar {
		core.SortSignals(signals)
		candidates = append(candidates, Candidate{
			Star:       star,
			Confidence: noisyOR(signals),
			Signals:    signals,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if len(candidates[i].Signals) != len(candidates[j].Signals) {
			return len(candidates[i].Signals) > len(candidates[j].Signals)
		}
		return candidates[i].Star < candidates[j].Star
	})

	return candidates, nil
}

// noisyOR combines signal weights into a confidence in [0, 1].
func noisyOR(signals []core.Signal) float64 {
	miss := 1.0
	for _, s := range signals {
		w := s.Weight
		if w < 0 {
			w = 0
		}
		if w > 1 {
			w = 1
		}
		miss *= 1 - w
	}
	return 1 - miss
}

// Assign scores the module and applies the promotion decision:
//
//   - exactly one matched override rule star  -> pinned
//   - confidence >= threshold, margin >= min  -> promote
//   - any nonzero confidence otherwise        -> review
//   - no matches                              -> unassigned
//
// Conflicting overrides (two rules pinning different stars) fall back to
// plain scoring; Validate surfaces them as configuration issues.
func (e *Engine) Assign(m *core.Module) (*core.Assignment, error) {
	candidates, err := e.Score(m)
	if err != nil {
		return nil, err
	}

	if pinned := e.pinnedStar(m, candidates); pinned != nil {
		return pinned, nil
	}

	if len(candidates) == 0 {
		return &core.Assignment{Module: m.Path, Status: core.StatusUnassigned}, nil
	}

	top := candidates[0]
	margin := top.Confidence
	if len(candidates) > 1 {
		margin = top.Confidence - candidates[1].Confidence
	}

	status := core.StatusReview
	if top.Confidence >= e.threshold && margin >= e.margin {
		status = core.StatusPromote
	}

	return &core.Assignment{
		Module:     m.Path,
		Star:       top.Star,
		Confidence: top.Confidence,
		Status:     status,
		Margin:     margin,
		Signals:    top.Signals,
	}, nil
}

// pinnedStar returns a pinned assignment when exactly one star is named by
// matched override rules, and nil otherwise.
func (e *Engine) pinnedStar(m *core.Module, candidates []Candidate) *core.Assignment {
	stars := map[string]float64{} // star -> strongest override weight
	for i := range e.compiled {
		cr := &e.compiled[i]
		if !cr.def.Override {
			continue
		}
		ok, _, err := e.match(cr, m)
		if err != nil || !ok {
			continue
		}
		if w, seen := stars[cr.def.Star]; !seen || cr.weight > w {
			stars[cr.def.Star] = cr.weight
		}
	}
	if len(stars) != 1 {
		return nil
	}

	var star string
	var weight float64
	for s, w := range stars {
		star, weight = s, w
	}

	confidence := weight
	var signals []core.Signal
	for _, c := range candidates {
		if c.Star == star {
			if c.Confidence > confidence {
				confidence = c.Confidence
			}
			signals = c.Signals
			break
		}
	}

	return &core.Assignment{
		Module:     m.Path,
		Star:       star,
		Confidence: confidence,
		Status:     core.StatusPinned,
		Margin:     confidence,
		Signals:    signals,
	}
}
