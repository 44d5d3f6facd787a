package checks

import (
	"fmt"
	"strings"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL05",
		Name:        "dependency-cycle",
		Group:       "graph",
		Description: "Modules form a dependency cycle",
		Severity:    core.SeverityError,
		Check:       checkDependencyCycle,
		Rationale:   "A cycle blocks every move plan that touches it; the modules cannot be relocated one at a time.",
		Fix:         "Break the cycle by extracting the shared code into a module both sides depend on.",
	})
}

func checkDependencyCycle(ctx *audit.Context) []core.Finding {
	if ctx.Graph == nil {
		return nil
	}
	cycle := ctx.Graph.FindCycle()
	if len(cycle) == 0 {
		return nil
	}
	return []core.Finding{{
		Module:  cycle[0],
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
	}}
}
