package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// UpsertModule inserts or refreshes a module row, preserving first_seen.
func (s *SQLStore) UpsertModule(m *core.Module) error {
	now := time.Now().UTC()
	_, err := s.exec(
		`INSERT INTO modules (path, name, description, owner, node, capabilities, depends_on, tags,
		                      declared, file_count, line_count, content_hash, first_seen, last_seen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET
		   name = excluded.name,
		   description = excluded.description,
		   owner = excluded.owner,
		   node = excluded.node,
		   capabilities = excluded.capabilities,
		   depends_on = excluded.depends_on,
		   tags = excluded.tags,
		   declared = excluded.declared,
		   file_count = excluded.file_count,
		   line_count = excluded.line_count,
		   content_hash = excluded.content_hash,
		   last_seen = excluded.last_seen`,
		m.Path, m.Name, m.Description, m.Owner, m.Node,
		encodeStrings(m.Capabilities), encodeStrings(m.DependsOn), encodeStrings(m.Tags),
		m.Declared, m.FileCount, m.LineCount, m.ContentHash, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert module %s: %w", m.Path, err)
	}
	return nil
}

// GetModule retrieves a module by path.
func (s *SQLStore) GetModule(path string) (*core.Module, error) {
	rows, err := s.query(moduleSelect+` WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanModule(rows)
}

// ListModules returns all known modules ordered by path.
func (s *SQLStore) ListModules() ([]*core.Module, error) {
	rows, err := s.query(moduleSelect + ` ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	var modules []*core.Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// DeleteModulesNotIn removes modules whose paths are absent from the latest
// scan, returning the number deleted. An empty slice clears the table.
func (s *SQLStore) DeleteModulesNotIn(paths []string) (int, error) {
	if len(paths) == 0 {
		res, err := s.exec(`DELETE FROM modules`)
		if err != nil {
			return 0, fmt.Errorf("failed to delete modules: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(paths)), ", ")
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	res, err := s.exec(`DELETE FROM modules WHERE path NOT IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale modules: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

const moduleSelect = `SELECT path, name, description, owner, node, capabilities, depends_on, tags,
       declared, file_count, line_count, content_hash
  FROM modules`

func scanModule(rows *sql.Rows) (*core.Module, error) {
	m := &core.Module{}
	var caps, deps, tags string
	if err := rows.Scan(&m.Path, &m.Name, &m.Description, &m.Owner, &m.Node,
		&caps, &deps, &tags, &m.Declared, &m.FileCount, &m.LineCount, &m.ContentHash); err != nil {
		return nil, fmt.Errorf("failed to scan module row: %w", err)
	}
	m.Capabilities = decodeStrings(caps)
	m.DependsOn = decodeStrings(deps)
	m.Tags = decodeStrings(tags)
	return m, nil
}

// encodeStrings stores string slices as JSON text columns.
func encodeStrings(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil
	}
	return list
}
