package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL04",
		Name:        "missing-owner",
		Group:       "ownership",
		Description: "Declared module has no owner",
		Severity:    core.SeverityWarning,
		Check:       checkMissingOwner,
		Rationale:   "A module someone bothered to declare but nobody owns has no one to approve its move.",
		Fix:         "Set owner in the module.yaml, or add a covering entry to an OWNERS file.",
	})
}

func checkMissingOwner(ctx *audit.Context) []core.Finding {
	var findings []core.Finding
	for _, m := range ctx.Modules {
		if !m.Declared || m.Owner != "" {
			continue
		}
		findings = append(findings, core.Finding{
			Module:  m.Path,
			Message: fmt.Sprintf("declared module %q has no owner", m.Path),
		})
	}
	return findings
}
