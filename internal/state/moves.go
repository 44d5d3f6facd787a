package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// SaveMoves persists a move plan, assigning IDs to new moves.
func (s *SQLStore) SaveMoves(moves []*core.Move) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Replanning a scan replaces its previous plan.
	if len(moves) > 0 {
		if _, err := tx.Exec(s.rebind(`DELETE FROM moves WHERE scan_id = ?`), moves[0].ScanID); err != nil {
			return fmt.Errorf("failed to clear previous plan: %w", err)
		}
	}

	stmt, err := tx.Prepare(s.rebind(
		`INSERT INTO moves (id, scan_id, seq, module, star, from_path, to_path, status, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	// seq preserves plan order (dependencies before dependents).
	for i, m := range moves {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if _, err := stmt.Exec(m.ID, m.ScanID, i, m.Module, m.Star, m.From, m.To,
			string(m.Status), m.Reason); err != nil {
			return fmt.Errorf("failed to save move for %s: %w", m.Module, err)
		}
	}

	return tx.Commit()
}

// GetMoves returns a scan's move plan ordered as saved.
func (s *SQLStore) GetMoves(scanID string) ([]*core.Move, error) {
	rows, err := s.query(
		`SELECT id, scan_id, module, star, from_path, to_path, status, reason
		   FROM moves WHERE scan_id = ? ORDER BY seq`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var moves []*core.Move
	for rows.Next() {
		m := &core.Move{}
		var status string
		if err := rows.Scan(&m.ID, &m.ScanID, &m.Module, &m.Star, &m.From, &m.To, &status, &m.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan move row: %w", err)
		}
		m.Status = core.MoveStatus(status)
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

// MarkMoveApplied flips a planned move to applied.
func (s *SQLStore) MarkMoveApplied(id string) error {
	res, err := s.exec(`UPDATE moves SET status = ? WHERE id = ?`,
		string(core.MoveStatusApplied), id)
	if err != nil {
		return fmt.Errorf("failed to mark move applied: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	return nil
}

// MarkMoveBlocked flips a planned move to blocked and records why.
func (s *SQLStore) MarkMoveBlocked(id, reason string) error {
	res, err := s.exec(`UPDATE moves SET status = ?, reason = ? WHERE id = ?`,
		string(core.MoveStatusBlocked), reason, id)
	if err != nil {
		return fmt.Errorf("failed to mark move blocked: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	return nil
}
