package commands

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/config"
	"github.com/lukhas-labs/starlift/internal/state"

	// sqlite driver for state database queries.
	_ "modernc.org/sqlite"
)

// resolveStatePath returns the state database path from config or the default.
func resolveStatePath(cfg *config.Config) string {
	if cfg.StatePath != "" {
		return cfg.StatePath
	}
	return config.DefaultStateFile
}

// sqliteStatePath resolves the sqlite state file, rejecting the postgres
// backend: query opens the file directly and bypasses the driver layer.
func sqliteStatePath(cfg *config.Config) (string, error) {
	if cfg.StateDriver == state.DriverPostgres {
		return "", fmt.Errorf("query reads the local sqlite state file and does not support state_driver %q; connect to the database in state_dsn with psql instead", cfg.StateDriver)
	}
	return resolveStatePath(cfg), nil
}

// openStateDBReadOnly opens the state database in read-only mode.
func openStateDBReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?mode=ro")
}

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the state database",
		Long: `Query the starlift state database directly.

Execute SQL queries against the state database to inspect scans, modules,
assignments, moves, findings, and the TODO and suppression ledgers.

When invoked without arguments, enters interactive REPL mode.

Only the sqlite backend is supported: query opens the state file in
read-only mode. With state_driver postgres, point psql at state_dsn.`,
		Example: `  # Execute SQL directly
  starlift query "SELECT module, star, confidence FROM assignments"

  # List available tables
  starlift query tables

  # Show schema for a table
  starlift query schema modules

  # Search modules by path, name, or owner
  starlift query search memory

  # Output as JSON
  starlift query "SELECT * FROM findings" --format json

  # Interactive mode
  starlift query`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))
	cmd.AddCommand(newQuerySearchCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	statePath, err := sqliteStatePath(cmdCtx.Cfg)
	if err != nil {
		return err
	}

	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		return fmt.Errorf("state database not found at %s (run 'starlift scan' first)", statePath)
	}

	var sqlQuery string

	switch {
	case len(args) > 0:
		sqlQuery = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		sqlQuery = string(content)
	case !isTerminal(os.Stdin):
		// Read from stdin (piped input)
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlQuery = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, statePath, opts)
	}

	return executeAndRender(cmd.Context(), cmd, statePath, sqlQuery, opts.Format)
}

func executeAndRender(ctx context.Context, cmd *cobra.Command, statePath, sqlQuery, format string) error {
	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List all tables in the state database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			statePath, err := sqliteStatePath(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			return listTables(cmd, statePath, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show schema for a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			statePath, err := sqliteStatePath(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			return showSchema(cmd, statePath, args[0], opts.Format)
		},
	}
}

// newQuerySearchCommand creates the search subcommand.
func newQuerySearchCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search modules by path, name, or owner",
		Example: `  starlift query search memory
  starlift query search "team-vision" --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			statePath, err := sqliteStatePath(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			return searchModules(cmd, statePath, args[0], opts.Format)
		},
	}
}

func searchModules(cmd *cobra.Command, statePath, term, format string) error {
	query := `
		SELECT path, name, owner, node, declared, line_count
		FROM modules
		WHERE path LIKE ? OR name LIKE ? OR owner LIKE ?
		ORDER BY path
		LIMIT 50
	`
	like := "%" + term + "%"

	db, err := openStateDBReadOnly(statePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(cmd.Context(), query, like, like, like)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return renderResults(cmd.OutOrStdout(), rows, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
