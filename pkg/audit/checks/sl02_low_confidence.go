package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL02",
		Name:        "low-confidence",
		Group:       "assignment",
		Description: "Best candidate star is below the confidence threshold",
		Severity:    core.SeverityInfo,
		Check:       checkLowConfidence,
		Rationale:   "A module stuck in review because no star clears the threshold needs either stronger rules or a manual pin.",
		Fix:         "Strengthen the matching rule weights or pin the module with an override rule.",
	})
}

func checkLowConfidence(ctx *audit.Context) []core.Finding {
	if ctx.RuleSet == nil {
		return nil
	}
	threshold := ctx.RuleSet.EffectiveThreshold()

	var findings []core.Finding
	for _, a := range ctx.Assignments {
		if a.Status != core.StatusReview || a.Confidence >= threshold {
			continue
		}
		findings = append(findings, core.Finding{
			Module: a.Module,
			Message: fmt.Sprintf("best candidate %q at confidence %.2f, below threshold %.2f",
				a.Star, a.Confidence, threshold),
		})
	}
	return findings
}
