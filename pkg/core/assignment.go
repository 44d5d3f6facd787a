package core

import "sort"

// =============================================================================
// Stars
// =============================================================================

// Star is a thematic domain modules are assigned to (e.g. guardian, memory).
type Star struct {
	// Name is the canonical lowercase star name.
	Name string `json:"name"`

	// Description explains the star's theme.
	Description string `json:"description,omitempty"`

	// Root is the repo-relative directory promoted modules live under.
	Root string `json:"root"`
}

// =============================================================================
// Signals
// =============================================================================

// SignalKind identifies what a rule matched against.
type SignalKind string

// Signal kinds, in the order the audit corpus names them.
const (
	SignalPath       SignalKind = "path"
	SignalCapability SignalKind = "capability"
	SignalNode       SignalKind = "node"
	SignalOwner      SignalKind = "owner"
	SignalPredicate  SignalKind = "predicate"
)

// ValidSignalKind reports whether k is a known signal kind.
func ValidSignalKind(k SignalKind) bool {
	switch k {
	case SignalPath, SignalCapability, SignalNode, SignalOwner, SignalPredicate:
		return true
	}
	return false
}

// Signal is one matched rule contributing to an assignment.
type Signal struct {
	RuleID string     `json:"rule_id"`
	Kind   SignalKind `json:"kind"`
	Weight float64    `json:"weight"`
	// Detail describes what matched (the path, capability, owner, ...).
	Detail string `json:"detail,omitempty"`
}

// SortSignals orders signals by descending weight, then rule ID.
// Assignments always carry signals in this order.
func SortSignals(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Weight != signals[j].Weight {
			return signals[i].Weight > signals[j].Weight
		}
		return signals[i].RuleID < signals[j].RuleID
	})
}

// =============================================================================
// Assignments
// =============================================================================

// AssignmentStatus is the outcome of scoring a module.
type AssignmentStatus string

// Assignment outcomes.
const (
	// StatusPromote: confidence cleared the threshold with sufficient margin.
	StatusPromote AssignmentStatus = "promote"
	// StatusPinned: a capability override forced the star.
	StatusPinned AssignmentStatus = "pinned"
	// StatusReview: some affinity, but below threshold or too ambiguous.
	StatusReview AssignmentStatus = "review"
	// StatusUnassigned: no rule matched at all.
	StatusUnassigned AssignmentStatus = "unassigned"
)

// Assignment is the scored module-to-star decision.
type Assignment struct {
	Module     string           `json:"module"`
	Star       string           `json:"star,omitempty"`
	Confidence float64          `json:"confidence"`
	Status     AssignmentStatus `json:"status"`
	// Margin is the confidence gap to the runner-up star.
	Margin  float64  `json:"margin"`
	Signals []Signal `json:"signals,omitempty"`
}

// =============================================================================
// Moves
// =============================================================================

// MoveStatus is the state of one planned file-move instruction.
type MoveStatus string

// Move states.
const (
	MoveStatusPlanned MoveStatus = "planned"
	MoveStatusBlocked MoveStatus = "blocked"
	MoveStatusApplied MoveStatus = "applied"
)

// Move is one file-move instruction produced by promotion planning.
type Move struct {
	ID     string     `json:"id"`
	ScanID string     `json:"scan_id"`
	Module string     `json:"module"`
	Star   string     `json:"star"`
	From   string     `json:"from"`
	To     string     `json:"to"`
	Status MoveStatus `json:"status"`
	// Reason explains blocked moves (e.g. dependency cycle, target exists).
	Reason string `json:"reason,omitempty"`
}
