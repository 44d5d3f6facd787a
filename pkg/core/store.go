package core

// Store defines the interface for state persistence.
// Implemented by internal/state for SQLite and PostgreSQL.
type Store interface {
	Close() error
	Migrate() error

	// Scan operations
	CreateScan(root string) (*Scan, error)
	GetScan(id string) (*Scan, error)
	CompleteScan(id string, status ScanStatus, errMsg string, stats ScanStats) error
	GetLatestScan() (*Scan, error)

	// Module operations
	UpsertModule(module *Module) error
	GetModule(path string) (*Module, error)
	ListModules() ([]*Module, error)
	DeleteModulesNotIn(paths []string) (int, error)

	// Assignment operations
	SaveAssignments(scanID string, assignments []*Assignment) error
	GetAssignments(scanID string) ([]*Assignment, error)
	GetAssignmentsByStatus(scanID string, status AssignmentStatus) ([]*Assignment, error)
	GetAssignment(scanID, module string) (*Assignment, error)

	// Move operations
	SaveMoves(moves []*Move) error
	GetMoves(scanID string) ([]*Move, error)
	MarkMoveApplied(id string) error
	MarkMoveBlocked(id, reason string) error

	// Finding operations
	SaveFindings(scanID string, findings []*Finding) error
	GetFindings(scanID string) ([]*Finding, error)
	CountFindingsBySeverity(scanID string) (map[Severity]int, error)

	// Todo / suppression ledgers
	ReplaceTodos(scanID string, todos []*TodoItem) error
	GetTodos(scanID string) ([]*TodoItem, error)
	ReplaceSuppressions(scanID string, sups []*Suppression) error
	GetSuppressions(scanID string) ([]*Suppression, error)
}

// ScanStats carries aggregate counts recorded when a scan completes.
type ScanStats struct {
	ModulesTotal    int
	ModulesDeclared int
	TodosTotal      int
	Suppressions    int
}
