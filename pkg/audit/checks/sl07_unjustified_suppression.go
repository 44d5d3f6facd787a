package checks

import (
	"fmt"
	"sort"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL07",
		Name:        "unjustified-suppressions",
		Group:       "hygiene",
		Description: "Module carries more unjustified suppression directives than allowed",
		Severity:    core.SeverityWarning,
		Check:       checkUnjustifiedSuppressions,
		ConfigKeys:  []string{"max_suppressions_per_module"},
		Rationale:   "A bare noqa or nolint hides a problem without recording why it is acceptable.",
		Fix:         "Append a short reason after each directive, or remove it and fix the underlying issue.",
	})
}

func checkUnjustifiedSuppressions(ctx *audit.Context) []core.Finding {
	limit := ctx.Config.MaxSuppressionsPerModule
	if limit < 0 {
		limit = 0
	}

	perModule := make(map[string]int)
	for _, s := range ctx.Suppressions {
		if s.Justified {
			continue
		}
		perModule[s.Module]++
	}

	modules := make([]string, 0, len(perModule))
	for module, count := range perModule {
		if count > limit {
			modules = append(modules, module)
		}
	}
	sort.Strings(modules)

	var findings []core.Finding
	for _, module := range modules {
		findings = append(findings, core.Finding{
			Module:  module,
			Message: fmt.Sprintf("%d unjustified suppression directives (limit %d)", perModule[module], limit),
		})
	}
	return findings
}
