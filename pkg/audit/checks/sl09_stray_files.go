package checks

import (
	"fmt"
	"strings"

	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func init() {
	audit.Register(audit.CheckDef{
		ID:          "SL09",
		Name:        "stray-files",
		Group:       "assignment",
		Description: "Module files live outside the assigned star's root",
		Severity:    core.SeverityWarning,
		Check:       checkStrayFiles,
		Rationale:   "A module promoted or pinned to a star belongs under that star's root; files left at the old location drift out of sync with the constellation layout.",
		Fix:         "Run 'starlift promote --apply' to move the module under its star root.",
	})
}

func checkStrayFiles(ctx *audit.Context) []core.Finding {
	if ctx.RuleSet == nil {
		return nil
	}
	var findings []core.Finding
	for _, a := range ctx.Assignments {
		if a.Status != core.StatusPromote && a.Status != core.StatusPinned {
			continue
		}
		star := ctx.RuleSet.StarByName(a.Star)
		if star == nil || star.Root == "" {
			continue
		}
		if underRoot(a.Module, star.Root) {
			continue
		}
		msg := fmt.Sprintf("module assigned to star %q sits outside its root %q", a.Star, star.Root)
		if m, ok := ctx.Module(a.Module); ok && m.FileCount > 0 {
			msg = fmt.Sprintf("%d files assigned to star %q sit outside its root %q",
				m.FileCount, a.Star, star.Root)
		}
		findings = append(findings, core.Finding{
			Module:  a.Module,
			Message: msg,
		})
	}
	return findings
}

// underRoot reports whether the module path equals root or lives below it.
// Both are slash-separated repo-relative paths.
func underRoot(module, root string) bool {
	return module == root || strings.HasPrefix(module, root+"/")
}
