package state

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukhas-labs/starlift/internal/testutil"
	"github.com/lukhas-labs/starlift/pkg/core"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(DriverSQLite, ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported state driver")
}

func TestMigrationVersion(t *testing.T) {
	store := newTestStore(t)
	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestRebind(t *testing.T) {
	sqlite := &SQLStore{driver: DriverSQLite}
	assert.Equal(t, `SELECT * FROM scans WHERE id = ?`,
		sqlite.rebind(`SELECT * FROM scans WHERE id = ?`))

	pg := &SQLStore{driver: DriverPostgres}
	assert.Equal(t, `INSERT INTO moves VALUES ($1, $2, $3)`,
		pg.rebind(`INSERT INTO moves VALUES (?, ?, ?)`))
}

func TestScanLifecycle(t *testing.T) {
	store := newTestStore(t)

	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)
	require.NotEmpty(t, scan.ID)
	assert.Equal(t, core.ScanStatusRunning, scan.Status)

	got, err := store.GetScan(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, "/repo", got.Root)
	assert.Nil(t, got.CompletedAt)

	stats := core.ScanStats{ModulesTotal: 12, ModulesDeclared: 7, TodosTotal: 3, Suppressions: 2}
	require.NoError(t, store.CompleteScan(scan.ID, core.ScanStatusCompleted, "", stats))

	got, err = store.GetScan(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.ScanStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, 12, got.ModulesTotal)
	assert.Equal(t, 7, got.ModulesDeclared)
	assert.Equal(t, 3, got.TodosTotal)
	assert.Equal(t, 2, got.Suppressions)

	latest, err := store.GetLatestScan()
	require.NoError(t, err)
	assert.Equal(t, scan.ID, latest.ID)
}

func TestScanNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetScan("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetLatestScan()
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.CompleteScan("missing", core.ScanStatusFailed, "boom", core.ScanStats{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertModuleRoundTrip(t *testing.T) {
	store := newTestStore(t)

	mod := &core.Module{
		Path:         "lukhas/memory/fold",
		Name:         "fold",
		Owner:        "memory-team",
		Node:         "memoria",
		Capabilities: []string{"fold", "recall"},
		DependsOn:    []string{"lukhas/core"},
		Tags:         []string{"tier-1"},
		Declared:     true,
		FileCount:    4,
		LineCount:    812,
		ContentHash:  "abc123",
	}
	require.NoError(t, store.UpsertModule(mod))

	got, err := store.GetModule("lukhas/memory/fold")
	require.NoError(t, err)
	assert.Equal(t, mod.Capabilities, got.Capabilities)
	assert.Equal(t, mod.DependsOn, got.DependsOn)
	assert.True(t, got.Declared)
	assert.Equal(t, 812, got.LineCount)

	// Upsert refreshes mutable fields.
	mod.LineCount = 900
	mod.Owner = "core-team"
	require.NoError(t, store.UpsertModule(mod))

	got, err = store.GetModule("lukhas/memory/fold")
	require.NoError(t, err)
	assert.Equal(t, 900, got.LineCount)
	assert.Equal(t, "core-team", got.Owner)

	_, err = store.GetModule("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDeleteModules(t *testing.T) {
	store := newTestStore(t)

	for _, path := range []string{"b/two", "a/one", "c/three"} {
		require.NoError(t, store.UpsertModule(&core.Module{Path: path, Name: path}))
	}

	mods, err := store.ListModules()
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, "a/one", mods[0].Path)
	assert.Equal(t, "c/three", mods[2].Path)

	deleted, err := store.DeleteModulesNotIn([]string{"a/one", "c/three"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	deleted, err = store.DeleteModulesNotIn(nil)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestAssignmentsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)

	assignments := []*core.Assignment{
		{
			Module:     "lukhas/memory/fold",
			Star:       "memory",
			Confidence: 0.82,
			Status:     core.StatusPromote,
			Margin:     0.40,
			Signals: []core.Signal{
				{RuleID: "MEM-PATH-01", Kind: core.SignalPath, Weight: 0.4, Detail: "path matched ^lukhas/memory/"},
				{RuleID: "MEM-CAP-01", Kind: core.SignalCapability, Weight: 0.6, Detail: "capability fold"},
			},
		},
		{Module: "lukhas/misc/glue", Status: core.StatusUnassigned},
	}
	require.NoError(t, store.SaveAssignments(scan.ID, assignments))

	got, err := store.GetAssignments(scan.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lukhas/memory/fold", got[0].Module)
	require.Len(t, got[0].Signals, 2)
	assert.Equal(t, "MEM-PATH-01", got[0].Signals[0].RuleID)
	assert.Empty(t, got[1].Signals)

	promoted, err := store.GetAssignmentsByStatus(scan.ID, core.StatusPromote)
	require.NoError(t, err)
	require.Len(t, promoted, 1)
	assert.InDelta(t, 0.82, promoted[0].Confidence, 1e-9)

	one, err := store.GetAssignment(scan.ID, "lukhas/misc/glue")
	require.NoError(t, err)
	assert.Equal(t, core.StatusUnassigned, one.Status)

	_, err = store.GetAssignment(scan.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	// Saving again replaces, never appends.
	require.NoError(t, store.SaveAssignments(scan.ID, assignments[:1]))
	got, err = store.GetAssignments(scan.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMovesPreserveOrder(t *testing.T) {
	store := newTestStore(t)
	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)

	moves := []*core.Move{
		{ScanID: scan.ID, Module: "z/leaf", Star: "memory", From: "z/leaf", To: "stars/memory/leaf", Status: core.MoveStatusPlanned},
		{ScanID: scan.ID, Module: "a/dependent", Star: "memory", From: "a/dependent", To: "stars/memory/dependent", Status: core.MoveStatusPlanned},
		{ScanID: scan.ID, Module: "m/cyclic", Star: "vision", From: "m/cyclic", To: "stars/vision/cyclic", Status: core.MoveStatusBlocked, Reason: "dependency cycle"},
	}
	require.NoError(t, store.SaveMoves(moves))

	got, err := store.GetMoves(scan.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "z/leaf", got[0].Module)
	assert.Equal(t, "a/dependent", got[1].Module)
	assert.Equal(t, core.MoveStatusBlocked, got[2].Status)
	assert.NotEmpty(t, got[0].ID)

	require.NoError(t, store.MarkMoveApplied(got[0].ID))
	got, err = store.GetMoves(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, core.MoveStatusApplied, got[0].Status)

	assert.ErrorIs(t, store.MarkMoveApplied("missing"), ErrNotFound)
}

func TestMarkMoveBlockedPersistsReason(t *testing.T) {
	store := newTestStore(t)
	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)

	moves := []*core.Move{
		{ScanID: scan.ID, Module: "lukhas/memory/fold", Star: "memory",
			From: "lukhas/memory/fold", To: "stars/memory/fold", Status: core.MoveStatusPlanned},
	}
	require.NoError(t, store.SaveMoves(moves))

	require.NoError(t, store.MarkMoveBlocked(moves[0].ID, "target already exists"))

	got, err := store.GetMoves(scan.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.MoveStatusBlocked, got[0].Status)
	assert.Equal(t, "target already exists", got[0].Reason)

	assert.ErrorIs(t, store.MarkMoveBlocked("missing", "x"), ErrNotFound)
}

func TestFindingsAndCounts(t *testing.T) {
	store := newTestStore(t)
	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)

	findings := []*core.Finding{
		{CheckID: "SL08", Severity: core.SeverityInfo, Module: "a", Message: "3 TODO markers"},
		{CheckID: "SL05", Severity: core.SeverityError, Module: "b", Message: "dependency cycle"},
		{CheckID: "SL02", Severity: core.SeverityWarning, Module: "c", Message: "low confidence"},
		{CheckID: "SL04", Severity: core.SeverityWarning, Module: "d", Message: "missing owner"},
	}
	require.NoError(t, store.SaveFindings(scan.ID, findings))

	got, err := store.GetFindings(scan.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	// Errors first, then warnings by check ID.
	assert.Equal(t, "SL05", got[0].CheckID)
	assert.Equal(t, "SL02", got[1].CheckID)
	assert.Equal(t, "SL04", got[2].CheckID)
	assert.Equal(t, "SL08", got[3].CheckID)

	counts, err := store.CountFindingsBySeverity(scan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[core.SeverityError])
	assert.Equal(t, 2, counts[core.SeverityWarning])
	assert.Equal(t, 1, counts[core.SeverityInfo])
	assert.Zero(t, counts[core.SeverityHint])
}

func TestTodoAndSuppressionLedgers(t *testing.T) {
	store := newTestStore(t)
	scan, err := store.CreateScan("/repo")
	require.NoError(t, err)

	todos := []*core.TodoItem{
		{Module: "a", File: "a/main.py", Line: 10, Marker: "TODO", Owner: "kim", Text: "wire retries"},
		{Module: "a", File: "a/main.py", Line: 3, Marker: "FIXME", Text: "handle nil"},
	}
	require.NoError(t, store.ReplaceTodos(scan.ID, todos))

	gotTodos, err := store.GetTodos(scan.ID)
	require.NoError(t, err)
	require.Len(t, gotTodos, 2)
	assert.Equal(t, 3, gotTodos[0].Line)
	assert.Equal(t, "kim", gotTodos[1].Owner)

	sups := []*core.Suppression{
		{Module: "a", File: "a/main.py", Line: 5, Directive: "# noqa", Justified: true, Reason: "long import line"},
		{Module: "b", File: "b/util.py", Line: 9, Directive: "# nosec"},
	}
	require.NoError(t, store.ReplaceSuppressions(scan.ID, sups))

	gotSups, err := store.GetSuppressions(scan.ID)
	require.NoError(t, err)
	require.Len(t, gotSups, 2)
	assert.True(t, gotSups[0].Justified)
	assert.False(t, gotSups[1].Justified)

	// Replace semantics.
	require.NoError(t, store.ReplaceTodos(scan.ID, nil))
	gotTodos, err = store.GetTodos(scan.ID)
	require.NoError(t, err)
	assert.Empty(t, gotTodos)
}

func TestSaveAssignmentsBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(assert.AnError)

	store := &SQLStore{db: db, driver: DriverSQLite}
	err = store.SaveAssignments("scan-1", []*core.Assignment{{Module: "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteScanExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE scans SET").WillReturnError(assert.AnError)

	store := &SQLStore{db: db, driver: DriverSQLite}
	err = store.CompleteScan("scan-1", core.ScanStatusCompleted, "", core.ScanStats{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to complete scan")
	assert.NoError(t, mock.ExpectationsWereMet())
}
