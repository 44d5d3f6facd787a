package state

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// SaveFindings replaces the audit findings for a scan in one transaction.
func (s *SQLStore) SaveFindings(scanID string, findings []*core.Finding) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(s.rebind(`DELETE FROM findings WHERE scan_id = ?`), scanID); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}

	stmt, err := tx.Prepare(s.rebind(
		`INSERT INTO findings (id, scan_id, check_id, severity, module, file, line, message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if _, err := stmt.Exec(f.ID, scanID, f.CheckID, int(f.Severity),
			f.Module, f.File, f.Line, f.Message); err != nil {
			return fmt.Errorf("failed to save finding %s: %w", f.CheckID, err)
		}
	}

	return tx.Commit()
}

// GetFindings returns a scan's findings ordered by severity, then check and
// module for stable output.
func (s *SQLStore) GetFindings(scanID string) ([]*core.Finding, error) {
	rows, err := s.query(
		`SELECT id, scan_id, check_id, severity, module, file, line, message
		   FROM findings WHERE scan_id = ?
		  ORDER BY severity, check_id, module, file, line`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []*core.Finding
	for rows.Next() {
		f := &core.Finding{}
		var sev int
		if err := rows.Scan(&f.ID, &f.ScanID, &f.CheckID, &sev, &f.Module, &f.File, &f.Line, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan finding row: %w", err)
		}
		f.Severity = core.Severity(sev)
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// CountFindingsBySeverity aggregates a scan's findings per severity level.
func (s *SQLStore) CountFindingsBySeverity(scanID string) (map[core.Severity]int, error) {
	rows, err := s.query(
		`SELECT severity, COUNT(*) FROM findings WHERE scan_id = ? GROUP BY severity`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to count findings: %w", err)
	}
	defer rows.Close()

	counts := make(map[core.Severity]int)
	for rows.Next() {
		var sev, n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[core.Severity(sev)] = n
	}
	return counts, rows.Err()
}
