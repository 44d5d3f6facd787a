package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL01",
		Name:        "unassigned-module",
		Group:       "assignment",
		Description: "Module matched no assignment rule",
		Severity:    core.SeverityWarning,
		Check:       checkUnassigned,
		Rationale:   "Modules no rule can place accumulate outside any star and never get owners or review.",
		Fix:         "Add a path or capability rule for the module, or declare capabilities in its module.yaml.",
	})
}

func checkUnassigned(ctx *audit.Context) []core.Finding {
	var findings []core.Finding
	for _, a := range ctx.Assignments {
		if a.Status != core.StatusUnassigned {
			continue
		}
		findings = append(findings, core.Finding{
			Module:  a.Module,
			Message: fmt.Sprintf("module %q matched no assignment rule", a.Module),
		})
	}
	return findings
}
