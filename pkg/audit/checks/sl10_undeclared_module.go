package checks

import (
	"fmt"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL10",
		Name:        "undeclared-module",
		Group:       "hygiene",
		Description: "Source directory has no module.yaml manifest",
		Severity:    core.SeverityHint,
		Check:       checkUndeclaredModule,
		Rationale:   "Inferred modules only get weak path signals; a manifest gives the engine capabilities and an owner to work with.",
		Fix:         "Add a module.yaml declaring the module's name, owner, and capabilities.",
	})
}

func checkUndeclaredModule(ctx *audit.Context) []core.Finding {
	var findings []core.Finding
	for _, m := range ctx.Modules {
		if m.Declared {
			continue
		}
		findings = append(findings, core.Finding{
			Module:  m.Path,
			Message: fmt.Sprintf("directory %q holds source files but no module.yaml", m.Path),
		})
	}
	return findings
}
