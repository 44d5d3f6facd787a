package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lukhas-labs/starlift/pkg/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// CreateScan records the start of a scan.
func (s *SQLStore) CreateScan(root string) (*core.Scan, error) {
	scan := &core.Scan{
		ID:        uuid.New().String(),
		Root:      root,
		Status:    core.ScanStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.exec(
		`INSERT INTO scans (id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		scan.ID, scan.Root, string(scan.Status), scan.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan: %w", err)
	}
	return scan, nil
}

// GetScan retrieves a scan by ID.
func (s *SQLStore) GetScan(id string) (*core.Scan, error) {
	return s.scanRow(s.queryRow(
		`SELECT id, root, status, started_at, completed_at, error,
		        modules_total, modules_declared, todos_total, suppressions_total
		 FROM scans WHERE id = ?`, id))
}

// GetLatestScan returns the most recently started scan, or ErrNotFound.
func (s *SQLStore) GetLatestScan() (*core.Scan, error) {
	return s.scanRow(s.queryRow(
		`SELECT id, root, status, started_at, completed_at, error,
		        modules_total, modules_declared, todos_total, suppressions_total
		 FROM scans ORDER BY started_at DESC LIMIT 1`))
}

// CompleteScan finalizes a scan with its status and aggregate stats.
func (s *SQLStore) CompleteScan(id string, status core.ScanStatus, errMsg string, stats core.ScanStats) error {
	res, err := s.exec(
		`UPDATE scans SET status = ?, completed_at = ?, error = ?,
		        modules_total = ?, modules_declared = ?, todos_total = ?, suppressions_total = ?
		 WHERE id = ?`,
		string(status), time.Now().UTC(), errMsg,
		stats.ModulesTotal, stats.ModulesDeclared, stats.TodosTotal, stats.Suppressions, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete scan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scan %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) scanRow(row *sql.Row) (*core.Scan, error) {
	scan := &core.Scan{}
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(&scan.ID, &scan.Root, &status, &scan.StartedAt, &completedAt, &errMsg,
		&scan.ModulesTotal, &scan.ModulesDeclared, &scan.TodosTotal, &scan.Suppressions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scan: %w", err)
	}

	scan.Status = core.ScanStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		scan.CompletedAt = &t
	}
	scan.Error = errMsg.String
	return scan, nil
}
