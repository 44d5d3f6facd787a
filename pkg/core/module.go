package core

import "time"

// Module is a unit of classification: a directory in the scanned repository,
// either declared by a module.yaml manifest or inferred from source files.
type Module struct {
	// Path is the slash-separated repo-relative directory path.
	// It is the module's unique identifier.
	Path string `json:"path"`

	// Name is the logical module name (manifest name, or derived from Path).
	Name string `json:"name"`

	// Description from the manifest, if any.
	Description string `json:"description,omitempty"`

	// Owner is the owning team or person. Manifest owner wins over the
	// OWNERS file mapping.
	Owner string `json:"owner,omitempty"`

	// Node is the declared node type (e.g. "cognitive", "bridge").
	Node string `json:"node,omitempty"`

	// Capabilities declared in the manifest.
	Capabilities []string `json:"capabilities,omitempty"`

	// DependsOn lists module names this module depends on.
	DependsOn []string `json:"depends_on,omitempty"`

	// Tags from the manifest.
	Tags []string `json:"tags,omitempty"`

	// Declared is true when a module.yaml manifest was present.
	Declared bool `json:"declared"`

	// FileCount and LineCount summarize the module's source files.
	FileCount int `json:"file_count"`
	LineCount int `json:"line_count"`

	// ContentHash is a sha256 over the sorted per-file hashes, used for
	// change detection between scans.
	ContentHash string `json:"content_hash,omitempty"`
}

// TodoItem is a TODO/FIXME/HACK/XXX marker found in a source file.
type TodoItem struct {
	Module string `json:"module"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Marker string `json:"marker"`
	Owner  string `json:"owner,omitempty"`
	Text   string `json:"text"`
}

// Suppression is a lint/type-check suppression directive found in source.
type Suppression struct {
	Module    string `json:"module"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Directive string `json:"directive"`
	// Justified is true when the directive carries a trailing explanation.
	Justified bool   `json:"justified"`
	Reason    string `json:"reason,omitempty"`
}

// Scan records one discovery pass over a repository.
type Scan struct {
	ID          string     `json:"id"`
	Root        string     `json:"root"`
	Status      ScanStatus `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Stats
	ModulesTotal    int `json:"modules_total"`
	ModulesDeclared int `json:"modules_declared"`
	TodosTotal      int `json:"todos_total"`
	Suppressions    int `json:"suppressions_total"`
}

// ScanStatus is the lifecycle state of a scan.
type ScanStatus string

// Scan lifecycle states.
const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// Finding is one audit check diagnostic tied to a scan.
type Finding struct {
	ID       string   `json:"id"`
	ScanID   string   `json:"scan_id"`
	CheckID  string   `json:"check_id"`
	Severity Severity `json:"severity"`
	Module   string   `json:"module,omitempty"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
}
