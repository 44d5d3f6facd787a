package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL03",
		Name:        "ambiguous-assignment",
		Group:       "assignment",
		Description: "Two stars compete for a module within the promotion margin",
		Severity:    core.SeverityWarning,
		Check:       checkAmbiguous,
		Rationale:   "When the top two candidates score nearly the same the placement is a coin flip, not a decision.",
		Fix:         "Split the module, or add a capability rule that disambiguates the intended star.",
	})
}

func checkAmbiguous(ctx *audit.Context) []core.Finding {
	if ctx.RuleSet == nil {
		return nil
	}
	threshold := ctx.RuleSet.EffectiveThreshold()
	margin := ctx.RuleSet.EffectiveMargin()

	var findings []core.Finding
	for _, a := range ctx.Assignments {
		if a.Status != core.StatusReview || a.Confidence < threshold {
			continue
		}
		findings = append(findings, core.Finding{
			Module: a.Module,
			Message: fmt.Sprintf("star %q leads by only %.2f, below the %.2f promotion margin",
				a.Star, a.Margin, margin),
		})
	}
	return findings
}
