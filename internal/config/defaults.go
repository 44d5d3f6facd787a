// Package config holds defaults shared between the CLI configuration layer
// and commands that need them without loading a full config.
package config

// Default locations, relative to the project root.
const (
	DefaultRulesPath      = "configs/star_rules.json"
	DefaultPredicatesPath = "configs/predicates.star"
	DefaultStateFile      = ".starlift/state.db"
	DefaultReportsDir     = "reports"
)

// Default runtime settings.
const (
	DefaultStateDriver = "sqlite"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultServeAddr   = "127.0.0.1:8402"
)
