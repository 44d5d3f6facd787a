// Package state persists scans, modules, assignments, moves, and audit
// ledgers. It implements core.Store over database/sql with a SQLite backend
// (modernc driver) and an optional PostgreSQL backend (pgx stdlib).
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver (pure Go)

	"github.com/lukhas-labs/starlift/pkg/core"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore implements core.Store over database/sql.
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// compile-time interface check
var _ core.Store = (*SQLStore)(nil)

// Open connects to the state database. For sqlite the dsn is a file path or
// ":memory:"; for postgres it is a standard connection string.
func Open(driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var db *sql.DB
	var err error

	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported state driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping state database: %w", err)
	}

	if driver == DriverSQLite {
		// WAL mode interleaves scans and report reads without lock churn.
		db.SetMaxOpenConns(1)
	}

	return &SQLStore{db: db, driver: driver, logger: logger}, nil
}

// sqliteDSN decorates a path with the pragmas every connection needs.
func sqliteDSN(path string) string {
	if path == "" {
		path = ":memory:"
	}
	if path == ":memory:" {
		return ":memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle for the query command and tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Driver returns the active driver name.
func (s *SQLStore) Driver() string { return s.driver }

// rebind converts `?` placeholders to `$N` for postgres. Queries are written
// once in sqlite style and rebound per driver.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *SQLStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *SQLStore) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}
