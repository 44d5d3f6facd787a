package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/report"
	"github.com/lukhas-labs/starlift/pkg/core"
)

// NewTodosCommand creates the todos command.
func NewTodosCommand() *cobra.Command {
	var marker string
	var unowned bool

	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Show the TODO inventory from the latest scan",
		Example: `  # All TODO markers
  starlift todos

  # Only FIXMEs
  starlift todos --marker FIXME

  # Markers with no owner attribution
  starlift todos --unowned`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			scan, err := cc.Engine.Store().GetLatestScan()
			if err != nil {
				return fmt.Errorf("no scan found, run 'starlift scan' first: %w", err)
			}
			todos, err := cc.Engine.Store().GetTodos(scan.ID)
			if err != nil {
				return err
			}

			todos = filterTodos(todos, marker, unowned)
			inv := report.BuildTodoInventory(scan, todos)

			r := cc.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(inv)
			case output.ModeMarkdown:
				r.Println(inv.Markdown())
				return nil
			}

			if len(todos) == 0 {
				r.Success("No TODO markers found.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Module", "File", "Line", "Marker", "Owner", "Text"})
			for _, td := range todos {
				owner := td.Owner
				if owner == "" {
					owner = "-"
				}
				t.AppendRow(table.Row{td.Module, td.File, td.Line, td.Marker, owner, td.Text})
			}
			t.Render()
			r.Printf("(%d markers)\n", len(todos))
			return nil
		},
	}

	cmd.Flags().StringVar(&marker, "marker", "", "Only this marker kind (TODO, FIXME, HACK, XXX)")
	cmd.Flags().BoolVar(&unowned, "unowned", false, "Only markers without an owner")

	return cmd
}

func filterTodos(todos []*core.TodoItem, marker string, unowned bool) []*core.TodoItem {
	if marker == "" && !unowned {
		return todos
	}
	filtered := make([]*core.TodoItem, 0, len(todos))
	for _, td := range todos {
		if marker != "" && td.Marker != marker {
			continue
		}
		if unowned && td.Owner != "" {
			continue
		}
		filtered = append(filtered, td)
	}
	return filtered
}
