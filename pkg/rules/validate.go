package rules

import (
	"fmt"
	"regexp"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// Issue is one problem found by Validate.
type Issue struct {
	RuleID   string        `json:"rule_id,omitempty"`
	Star     string        `json:"star,omitempty"`
	Severity core.Severity `json:"severity"`
	Message  string        `json:"message"`
}

func (i Issue) String() string {
	subject := i.RuleID
	if subject == "" {
		subject = i.Star
	}
	if subject == "" {
		subject = "ruleset"
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, subject, i.Message)
}

// HasErrors reports whether any issue is error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// Validate checks a rule set structurally and returns all issues found.
// Unlike Compile it does not stop at the first problem, so a single
// validation run produces the complete report the audit corpus calls the
// "star assignment rule validation report".
func Validate(set *RuleSet) []Issue {
	var issues []Issue
	add := func(ruleID, star string, sev core.Severity, format string, args ...any) {
		issues = append(issues, Issue{
			RuleID:   ruleID,
			Star:     star,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if t := set.ConfidenceThreshold; t < 0 || t > 1 {
		add("", "", core.SeverityError, "confidence_threshold %.2f outside [0, 1]", t)
	}
	if m := set.PromotionMargin; m < 0 || m > 1 {
		add("", "", core.SeverityError, "promotion_margin %.2f outside [0, 1]", m)
	}
	for kind, w := range set.DefaultWeights {
		if !core.ValidSignalKind(core.SignalKind(kind)) {
			add("", "", core.SeverityError, "default_weights names unknown signal kind %q", kind)
		}
		if w <= 0 || w > 1 {
			add("", "", core.SeverityError, "default weight for %q is %.2f, must be in (0, 1]", kind, w)
		}
	}

	// Stars
	starNames := map[string]bool{}
	for i := range set.Stars {
		star := &set.Stars[i]
		if star.Name == "" {
			add("", "", core.SeverityError, "star #%d has no name", i+1)
			continue
		}
		if starNames[star.Name] {
			add("", star.Name, core.SeverityError, "duplicate star name")
		}
		starNames[star.Name] = true
		if star.Root == "" {
			add("", star.Name, core.SeverityWarning, "star has no root directory; promoted modules cannot be planned")
		}
	}

	// Rules
	ruleIDs := map[string]bool{}
	rulesPerStar := map[string]int{}
	for i := range set.Rules {
		rule := &set.Rules[i]
		id := rule.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i+1)
			add(id, rule.Star, core.SeverityError, "rule has no id")
		} else if ruleIDs[rule.ID] {
			add(id, rule.Star, core.SeverityError, "duplicate rule id")
		}
		ruleIDs[rule.ID] = true

		if rule.Star == "" {
			add(id, "", core.SeverityError, "rule names no star")
		} else if !starNames[rule.Star] {
			add(id, rule.Star, core.SeverityError, "rule references unknown star %q", rule.Star)
		}
		rulesPerStar[rule.Star]++

		if !core.ValidSignalKind(rule.Signal) {
			add(id, rule.Star, core.SeverityError, "unknown signal kind %q", rule.Signal)
			continue
		}

		switch rule.Signal {
		case core.SignalPredicate:
			if rule.Function == "" {
				add(id, rule.Star, core.SeverityError, "predicate rule has no function")
			}
			if rule.Pattern != "" {
				add(id, rule.Star, core.SeverityWarning, "pattern is ignored on predicate rules")
			}
		default:
			if rule.Pattern == "" {
				add(id, rule.Star, core.SeverityError, "rule has empty pattern")
			}
			if rule.Function != "" {
				add(id, rule.Star, core.SeverityWarning, "function is ignored on %s rules", rule.Signal)
			}
		}

		if rule.Signal == core.SignalPath && rule.Pattern != "" {
			if _, err := regexp.Compile(rule.Pattern); err != nil {
				add(id, rule.Star, core.SeverityError, "invalid pattern: %v", err)
			}
		}

		if rule.Weight != nil {
			if w := *rule.Weight; w <= 0 || w > 1 {
				add(id, rule.Star, core.SeverityError, "weight %.2f must be in (0, 1]", w)
			}
		}

		if rule.Override && rule.Signal != core.SignalCapability && rule.Signal != core.SignalPredicate {
			add(id, rule.Star, core.SeverityError, "override is only valid on capability and predicate rules")
		}
	}

	// Stars with no rules can never receive a module.
	for name := range starNames {
		if rulesPerStar[name] == 0 {
			add("", name, core.SeverityInfo, "star has no rules and will never be assigned")
		}
	}

	return issues
}

// Coverage reports rules that matched none of the given modules as info
// issues. Predicate rules are skipped when the engine has no evaluator, and
// a rule whose evaluation errors is not reported as unmatched.
func (e *Engine) Coverage(modules []*core.Module) []Issue {
	var issues []Issue
	for i := range e.compiled {
		cr := &e.compiled[i]
		if cr.def.Signal == core.SignalPredicate && e.predicates == nil {
			continue
		}

		matched := false
		for _, m := range modules {
			ok, _, err := e.match(cr, m)
			if err != nil || ok {
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		issues = append(issues, Issue{
			RuleID:   cr.def.ID,
			Star:     cr.def.Star,
			Severity: core.SeverityInfo,
			Message:  "rule matched no scanned module",
		})
	}
	return issues
}
