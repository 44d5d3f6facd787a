// Package tui implements the interactive assignment browser: a bubbletea
// table over the latest scan's assignments with status filtering and a
// per-module signal detail view.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// statusFilter cycles through assignment outcomes with tab.
type statusFilter int

const (
	filterAll statusFilter = iota
	filterPromote
	filterReview
	filterUnassigned
)

func (f statusFilter) String() string {
	switch f {
	case filterPromote:
		return "promote+pinned"
	case filterReview:
		return "review"
	case filterUnassigned:
		return "unassigned"
	default:
		return "all"
	}
}

func (f statusFilter) matches(a *core.Assignment) bool {
	switch f {
	case filterPromote:
		return a.Status == core.StatusPromote || a.Status == core.StatusPinned
	case filterReview:
		return a.Status == core.StatusReview
	case filterUnassigned:
		return a.Status == core.StatusUnassigned
	default:
		return true
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	detailStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Browser is the bubbletea model for the assignment browser.
type Browser struct {
	scan        *core.Scan
	assignments []*core.Assignment
	filtered    []*core.Assignment

	table       table.Model
	filterInput textinput.Model

	filter        statusFilter
	filterFocused bool
	showDetail    bool
	width         int
	height        int
}

// NewBrowser builds the browser over a scan's assignments.
func NewBrowser(scan *core.Scan, assignments []*core.Assignment) *Browser {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Module", Width: 40},
			{Title: "Star", Width: 14},
			{Title: "Status", Width: 12},
			{Title: "Confidence", Width: 10},
			{Title: "Margin", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	fi := textinput.New()
	fi.Placeholder = "Filter by module path..."
	fi.CharLimit = 80
	fi.Width = 40

	b := &Browser{
		scan:        scan,
		assignments: assignments,
		table:       t,
		filterInput: fi,
	}
	b.applyFilter()
	return b
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.table.SetHeight(max(5, msg.Height-8))
		return b, nil

	case tea.KeyMsg:
		if b.filterFocused {
			switch msg.String() {
			case "enter", "esc":
				b.filterFocused = false
				b.filterInput.Blur()
				b.applyFilter()
				return b, nil
			}
			var cmd tea.Cmd
			b.filterInput, cmd = b.filterInput.Update(msg)
			b.applyFilter()
			return b, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "/":
			b.filterFocused = true
			b.filterInput.Focus()
			return b, textinput.Blink
		case "tab":
			b.filter = (b.filter + 1) % 4
			b.applyFilter()
			return b, nil
		case "enter":
			b.showDetail = !b.showDetail
			return b, nil
		case "esc":
			if b.showDetail {
				b.showDetail = false
				return b, nil
			}
			if b.filterInput.Value() != "" {
				b.filterInput.SetValue("")
				b.applyFilter()
				return b, nil
			}
		}
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// View implements tea.Model.
func (b *Browser) View() string {
	var sb strings.Builder

	header := fmt.Sprintf("starlift browse - %d modules", len(b.assignments))
	if b.scan != nil {
		header += mutedStyle.Render(fmt.Sprintf("  (scan %s)", b.scan.ID))
	}
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("filter: %s (%d shown)", b.filter, len(b.filtered))))
	sb.WriteString("\n")

	if b.filterFocused || b.filterInput.Value() != "" {
		sb.WriteString(b.filterInput.View())
		sb.WriteString("\n")
	}

	sb.WriteString(b.table.View())
	sb.WriteString("\n")

	if b.showDetail {
		if a := b.selected(); a != nil {
			sb.WriteString(detailStyle.Render(b.detailView(a)))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(mutedStyle.Render("tab: cycle status  /: filter  enter: signals  q: quit"))
	return sb.String()
}

// selected returns the assignment under the cursor.
func (b *Browser) selected() *core.Assignment {
	idx := b.table.Cursor()
	if idx < 0 || idx >= len(b.filtered) {
		return nil
	}
	return b.filtered[idx]
}

func (b *Browser) detailView(a *core.Assignment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", a.Module)
	star := a.Star
	if star == "" {
		star = "-"
	}
	fmt.Fprintf(&sb, "star: %s  status: %s  confidence: %.2f  margin: %.2f\n", star, a.Status, a.Confidence, a.Margin)
	if len(a.Signals) == 0 {
		sb.WriteString("no signals matched")
		return sb.String()
	}
	sb.WriteString("signals:\n")
	for _, s := range a.Signals {
		detail := s.Detail
		if detail != "" {
			detail = "  " + detail
		}
		fmt.Fprintf(&sb, "  %s (%s, %.2f)%s\n", s.RuleID, s.Kind, s.Weight, detail)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// applyFilter rebuilds the table rows from the active filters.
func (b *Browser) applyFilter() {
	term := strings.ToLower(strings.TrimSpace(b.filterInput.Value()))

	b.filtered = b.filtered[:0]
	rows := make([]table.Row, 0, len(b.assignments))
	for _, a := range b.assignments {
		if !b.filter.matches(a) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(a.Module), term) {
			continue
		}
		b.filtered = append(b.filtered, a)
		star := a.Star
		if star == "" {
			star = "-"
		}
		rows = append(rows, table.Row{
			a.Module,
			star,
			string(a.Status),
			fmt.Sprintf("%.2f", a.Confidence),
			fmt.Sprintf("%.2f", a.Margin),
		})
	}
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(0)
	}
}

// Run starts the browser program and blocks until the user quits.
func Run(scan *core.Scan, assignments []*core.Assignment) error {
	p := tea.NewProgram(NewBrowser(scan, assignments), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
