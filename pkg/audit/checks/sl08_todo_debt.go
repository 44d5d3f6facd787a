package checks

import (
	"fmt"
	"sort"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL08",
		Name:        "todo-debt",
		Group:       "hygiene",
		Description: "Module carries an excessive number of TODO markers",
		Severity:    core.SeverityInfo,
		Check:       checkTodoDebt,
		ConfigKeys:  []string{"max_todos_per_module"},
		Rationale:   "A pile of TODO markers in one module usually means planned work that was never scheduled.",
		Fix:         "File issues for the actionable markers and delete the stale ones.",
	})
}

func checkTodoDebt(ctx *audit.Context) []core.Finding {
	limit := ctx.Config.MaxTodosPerModule
	if limit <= 0 {
		limit = audit.DefaultConfig().MaxTodosPerModule
	}

	perModule := make(map[string]int)
	for _, t := range ctx.Todos {
		perModule[t.Module]++
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
			Message: fmt.Sprintf("%d TODO markers (limit %d)", perModule[module], limit),
		})
	}
	return findings
}
