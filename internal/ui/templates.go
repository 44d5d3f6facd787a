package ui

import "html/template"

// Pages share one layout; each page defines a "content" block.
const layoutTmpl = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>starlift - {{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 72rem; color: #1c1c28; }
  nav a { margin-right: 1rem; color: #3451b2; text-decoration: none; }
  nav a.active { font-weight: 600; border-bottom: 2px solid #3451b2; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #e3e3ee; }
  th { background: #f6f6fb; }
  .pill { display: inline-block; padding: 0.1rem 0.5rem; border-radius: 0.6rem; font-size: 0.85em; }
  .pill.promote, .pill.pinned, .pill.applied { background: #d9f2e2; color: #19683c; }
  .pill.review, .pill.warning, .pill.blocked { background: #fdf0d3; color: #8a6116; }
  .pill.unassigned, .pill.error { background: #fbdcdc; color: #9c2121; }
  .pill.info, .pill.planned, .pill.hint { background: #e3eafc; color: #2d4a9e; }
  .score { font-size: 2.2rem; font-weight: 700; }
  .muted { color: #7a7a8c; }
</style>
</head>
<body>
<nav>
  <a href="/" {{if eq .Page "dashboard"}}class="active"{{end}}>Dashboard</a>
  <a href="/assignments" {{if eq .Page "assignments"}}class="active"{{end}}>Assignments</a>
  <a href="/findings" {{if eq .Page "findings"}}class="active"{{end}}>Findings</a>
  <a href="/moves" {{if eq .Page "moves"}}class="active"{{end}}>Move Plan</a>
  <a href="/todos" {{if eq .Page "todos"}}class="active"{{end}}>TODOs</a>
  <a href="/suppressions" {{if eq .Page "suppressions"}}class="active"{{end}}>Suppressions</a>
</nav>
{{template "content" .}}
</body>
</html>`

const dashboardTmpl = `{{define "content"}}
<h1>Repository Health</h1>
{{with .Scan}}
<p class="muted">Scan <code>{{.ID}}</code> of <code>{{.Root}}</code>, {{.Status}}</p>
{{end}}
<p class="score">{{.Score}}/100</p>
<table>
  <tr><th>Modules</th><td>{{.Scan.ModulesTotal}} ({{.Scan.ModulesDeclared}} declared)</td></tr>
  <tr><th>TODO markers</th><td>{{.Scan.TodosTotal}}</td></tr>
  <tr><th>Suppressions</th><td>{{.Scan.Suppressions}}</td></tr>
  <tr><th>Findings</th><td>{{.FindingCount}}</td></tr>
</table>
<h2>Stars</h2>
<table>
  <tr><th>Star</th><th>Root</th><th>Assigned Modules</th></tr>
  {{range .Stars}}
  <tr><td>{{.Name}}</td><td><code>{{.Root}}</code></td><td>{{.Modules}}</td></tr>
  {{end}}
</table>
{{end}}`

const assignmentsTmpl = `{{define "content"}}
<h1>Assignments</h1>
<table>
  <tr><th>Module</th><th>Star</th><th>Status</th><th>Confidence</th><th>Margin</th><th>Signals</th></tr>
  {{range .Assignments}}
  <tr>
    <td><code>{{.Module}}</code></td>
    <td>{{if .Star}}{{.Star}}{{else}}-{{end}}</td>
    <td><span class="pill {{.Status}}">{{.Status}}</span></td>
    <td>{{printf "%.2f" .Confidence}}</td>
    <td>{{printf "%.2f" .Margin}}</td>
    <td class="muted">{{range $i, $s := .Signals}}{{if $i}}, {{end}}{{$s.RuleID}}{{end}}</td>
  </tr>
  {{end}}
</table>
{{end}}`

const findingsTmpl = `{{define "content"}}
<h1>Findings</h1>
<table>
  <tr><th>Severity</th><th>Check</th><th>Module</th><th>Message</th></tr>
  {{range .Findings}}
  <tr>
    <td><span class="pill {{.Severity}}">{{.Severity}}</span></td>
    <td>{{.CheckID}}</td>
    <td><code>{{.Module}}</code></td>
    <td>{{.Message}}</td>
  </tr>
  {{end}}
</table>
{{end}}`

const movesTmpl = `{{define "content"}}
<h1>Move Plan</h1>
<table>
  <tr><th>#</th><th>Module</th><th>Star</th><th>To</th><th>Status</th><th>Reason</th></tr>
  {{range $i, $m := .Moves}}
  <tr>
    <td>{{inc $i}}</td>
    <td><code>{{$m.Module}}</code></td>
    <td>{{$m.Star}}</td>
    <td><code>{{$m.To}}</code></td>
    <td><span class="pill {{$m.Status}}">{{$m.Status}}</span></td>
    <td class="muted">{{$m.Reason}}</td>
  </tr>
  {{end}}
</table>
{{end}}`

const todosTmpl = `{{define "content"}}
<h1>TODO Inventory</h1>
<table>
  <tr><th>Module</th><th>File</th><th>Line</th><th>Marker</th><th>Owner</th><th>Text</th></tr>
  {{range .Todos}}
  <tr>
    <td><code>{{.Module}}</code></td>
    <td>{{.File}}</td>
    <td>{{.Line}}</td>
    <td>{{.Marker}}</td>
    <td>{{if .Owner}}{{.Owner}}{{else}}-{{end}}</td>
    <td class="muted">{{.Text}}</td>
  </tr>
  {{end}}
</table>
{{end}}`

const suppressionsTmpl = `{{define "content"}}
<h1>Suppression Ledger</h1>
<table>
  <tr><th>Module</th><th>File</th><th>Line</th><th>Directive</th><th>Justified</th><th>Reason</th></tr>
  {{range .Suppressions}}
  <tr>
    <td><code>{{.Module}}</code></td>
    <td>{{.File}}</td>
    <td>{{.Line}}</td>
    <td><code>{{.Directive}}</code></td>
    <td>{{if .Justified}}<span class="pill promote">yes</span>{{else}}<span class="pill error">no</span>{{end}}</td>
    <td class="muted">{{.Reason}}</td>
  </tr>
  {{end}}
</table>
{{end}}`

var templates = map[string]*template.Template{
	"dashboard":    mustPage(dashboardTmpl),
	"assignments":  mustPage(assignmentsTmpl),
	"findings":     mustPage(findingsTmpl),
	"moves":        mustPage(movesTmpl),
	"todos":        mustPage(todosTmpl),
	"suppressions": mustPage(suppressionsTmpl),
}

func mustPage(content string) *template.Template {
	t := template.New("layout").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	})
	return template.Must(template.Must(t.Parse(layoutTmpl)).Parse(content))
}
