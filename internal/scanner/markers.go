package scanner

import (
	"regexp"
	"strings"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// todoPattern matches TODO/FIXME/HACK/XXX markers with optional owner
// attribution, e.g. "TODO(alice): tighten this".
var todoPattern = regexp.MustCompile(`\b(TODO|FIXME|HACK|XXX)(?:\(([^)]*)\))?\s*:?\s*(.*)`)

// suppressionDirectives are the lint/type-check silencers inventoried by the
// suppression ledger, across the languages the platform mixes.
var suppressionDirectives = []string{
	"# noqa",
	"# nosec",
	"# type: ignore",
	"# pylint: disable",
	"//nolint",
	"// nolint",
	"@SuppressWarnings",
}

// extractTodos scans file content for TODO-style markers.
func extractTodos(module, file, content string) []*core.TodoItem {
	var todos []*core.TodoItem
	for i, line := range strings.Split(content, "\n") {
		m := todoPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		todos = append(todos, &core.TodoItem{
			Module: module,
			File:   file,
			Line:   i + 1,
			Marker: m[1],
			Owner:  strings.TrimSpace(m[2]),
			Text:   strings.TrimSpace(m[3]),
		})
	}
	return todos
}

// extractSuppressions scans file content for suppression directives.
// A directive followed by explanatory text on the same line counts as
// justified; a bare directive does not.
func extractSuppressions(module, file, content string) []*core.Suppression {
	var sups []*core.Suppression
	for i, line := range strings.Split(content, "\n") {
		for _, directive := range suppressionDirectives {
			idx := strings.Index(line, directive)
			if idx < 0 {
				continue
			}
			rest := strings.TrimSpace(line[idx+len(directive):])
			reason := suppressionReason(directive, rest)
			sups = append(sups, &core.Suppression{
				Module:    module,
				File:      file,
				Line:      i + 1,
				Directive: strings.TrimSpace(directive),
				Justified: reason != "",
				Reason:    reason,
			})
			break
		}
	}
	return sups
}

// suppressionReason extracts the human justification that follows a
// directive, skipping over the directive's own argument syntax
// (rule codes, "=" lists, colons).
func suppressionReason(directive, rest string) string {
	if strings.HasPrefix(directive, "@") || strings.HasPrefix(rest, "(") {
		// Java annotations carry codes, not justifications.
		return ""
	}

	if strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "=") {
		// "# noqa: E501  line kept long for readability"
		// "//nolint:gosec // input is trusted"
		rest = strings.TrimSpace(strings.TrimLeft(rest, ":="))
		fields := strings.SplitN(rest, " ", 2)
		if len(fields) < 2 {
			return ""
		}
		rest = fields[1]
	}

	return strings.TrimSpace(strings.TrimLeft(rest, "-#/ "))
}
