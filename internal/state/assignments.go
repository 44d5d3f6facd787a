package state

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// SaveAssignments replaces the assignments for a scan in one transaction.
func (s *SQLStore) SaveAssignments(scanID string, assignments []*core.Assignment) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`DELETE FROM assignments WHERE scan_id = ?`), scanID); err != nil {
		return fmt.Errorf("failed to clear assignments: %w", err)
	}

	stmt, err := tx.Prepare(s.rebind(
		`INSERT INTO assignments (id, scan_id, module, star, confidence, status, margin, signals)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		signals, err := json.Marshal(a.Signals)
		if err != nil {
			return fmt.Errorf("failed to encode signals for %s: %w", a.Module, err)
		}
		if _, err := stmt.Exec(uuid.New().String(), scanID, a.Module, a.Star,
			a.Confidence, string(a.Status), a.Margin, string(signals)); err != nil {
			return fmt.Errorf("failed to save assignment for %s: %w", a.Module, err)
		}
	}

	return tx.Commit()
}

// GetAssignments returns a scan's assignments ordered by module path.
func (s *SQLStore) GetAssignments(scanID string) ([]*core.Assignment, error) {
	return s.assignmentQuery(
		assignmentSelect+` WHERE scan_id = ? ORDER BY module`, scanID)
}

// GetAssignmentsByStatus filters a scan's assignments by status.
func (s *SQLStore) GetAssignmentsByStatus(scanID string, status core.AssignmentStatus) ([]*core.Assignment, error) {
	return s.assignmentQuery(
		assignmentSelect+` WHERE scan_id = ? AND status = ? ORDER BY module`,
		scanID, string(status))
}

// GetAssignment returns one module's assignment in a scan.
func (s *SQLStore) GetAssignment(scanID, module string) (*core.Assignment, error) {
	list, err := s.assignmentQuery(
		assignmentSelect+` WHERE scan_id = ? AND module = ?`, scanID, module)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

const assignmentSelect = `SELECT module, star, confidence, status, margin, signals FROM assignments`

func (s *SQLStore) assignmentQuery(query string, args ...any) ([]*core.Assignment, error) {
	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*core.Assignment
	for rows.Next() {
		a := &core.Assignment{}
		var status, signals string
		if err := rows.Scan(&a.Module, &a.Star, &a.Confidence, &status, &a.Margin, &signals); err != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", err)
		}
		a.Status = core.AssignmentStatus(status)
		if signals != "" && signals != "[]" {
			if err := json.Unmarshal([]byte(signals), &a.Signals); err != nil {
				return nil, fmt.Errorf("corrupt signals for %s: %w", a.Module, err)
			}
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
