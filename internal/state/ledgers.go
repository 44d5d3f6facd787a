package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// ReplaceTodos swaps a scan's TODO inventory in one transaction.
func (s *SQLStore) ReplaceTodos(scanID string, todos []*core.TodoItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`DELETE FROM todos WHERE scan_id = ?`), scanID); err != nil {
		return fmt.Errorf("failed to clear todos: %w", err)
	}

	stmt, err := tx.Prepare(s.rebind(
		`INSERT INTO todos (id, scan_id, module, file, line, marker, owner, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range todos {
		if _, err := stmt.Exec(uuid.New().String(), scanID,
			t.Module, t.File, t.Line, t.Marker, t.Owner, t.Text); err != nil {
			return fmt.Errorf("failed to save todo at %s:%d: %w", t.File, t.Line, err)
		}
	}

	return tx.Commit()
}

// GetTodos returns a scan's TODO inventory ordered by location.
func (s *SQLStore) GetTodos(scanID string) ([]*core.TodoItem, error) {
	rows, err := s.query(
		`SELECT module, file, line, marker, owner, text
		   FROM todos WHERE scan_id = ? ORDER BY module, file, line`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*core.TodoItem
	for rows.Next() {
		t := &core.TodoItem{}
		if err := rows.Scan(&t.Module, &t.File, &t.Line, &t.Marker, &t.Owner, &t.Text); err != nil {
			return nil, fmt.Errorf("failed to scan todo row: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// ReplaceSuppressions swaps a scan's suppression ledger in one transaction.
func (s *SQLStore) ReplaceSuppressions(scanID string, sups []*core.Suppression) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`DELETE FROM suppressions WHERE scan_id = ?`), scanID); err != nil {
		return fmt.Errorf("failed to clear suppressions: %w", err)
	}

	stmt, err := tx.Prepare(s.rebind(
		`INSERT INTO suppressions (id, scan_id, module, file, line, directive, justified, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sup := range sups {
		if _, err := stmt.Exec(uuid.New().String(), scanID,
			sup.Module, sup.File, sup.Line, sup.Directive, sup.Justified, sup.Reason); err != nil {
			return fmt.Errorf("failed to save suppression at %s:%d: %w", sup.File, sup.Line, err)
		}
	}

	return tx.Commit()
}

// GetSuppressions returns a scan's suppression ledger ordered by location.
func (s *SQLStore) GetSuppressions(scanID string) ([]*core.Suppression, error) {
	rows, err := s.query(
		`SELECT module, file, line, directive, justified, reason
		   FROM suppressions WHERE scan_id = ? ORDER BY module, file, line`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppressions: %w", err)
	}
	defer rows.Close()

	var sups []*core.Suppression
	for rows.Next() {
		sup := &core.Suppression{}
		if err := rows.Scan(&sup.Module, &sup.File, &sup.Line, &sup.Directive, &sup.Justified, &sup.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan suppression row: %w", err)
		}
		sups = append(sups, sup)
	}
	return sups, rows.Err()
}
