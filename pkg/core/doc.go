// Package core defines the shared language of the starlift system.
//
// This package contains:
//   - Domain entities (Module, Star, Assignment, Scan, Finding, etc.)
//   - The Store persistence interface
//   - Severity and status enumerations
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
