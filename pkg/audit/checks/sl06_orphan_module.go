package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL06",
		Name:        "orphan-module",
		Group:       "graph",
		Description: "Module has no dependencies and no dependents",
		Severity:    core.SeverityHint,
		Check:       checkOrphanModule,
		Rationale:   "Modules nothing imports and that import nothing are often dead code or forgotten experiments.",
		Fix:         "Confirm the module is still used; delete it or declare its dependencies.",
	})
}

func checkOrphanModule(ctx *audit.Context) []core.Finding {
	if ctx.Graph == nil {
		return nil
	}
	var findings []core.Finding
	for _, m := range ctx.Modules {
		if !ctx.Graph.Has(m.Path) || !ctx.Graph.IsOrphan(m.Path) {
			continue
		}
		findings = append(findings, core.Finding{
			Module:  m.Path,
			Message: fmt.Sprintf("module %q has no declared dependencies or dependents", m.Path),
		})
	}
	return findings
}
