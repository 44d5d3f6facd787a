// Package config loads CLI configuration from starlift.yaml, environment
// variables, and flags. Precedence (highest to lowest):
// flags > env vars > config file > defaults.
package config

import (
	intconfig "github.com/lukhas-labs/starlift/internal/config"
)

// Config holds all CLI configuration options.
type Config struct {
	Root           string        `koanf:"root"`
	RulesPath      string        `koanf:"rules"`
	PredicatesPath string        `koanf:"predicates"`
	StateDriver    string        `koanf:"state_driver"`
	StatePath      string        `koanf:"state_path"`
	StateDSN       string        `koanf:"state_dsn"`
	ReportsDir     string        `koanf:"reports_dir"`
	Excludes       []string      `koanf:"exclude"`
	Workers        int           `koanf:"workers"`
	Verbose        bool          `koanf:"verbose"`
	OutputFormat   string        `koanf:"output"`
	Audit          *AuditConfig  `koanf:"audit"`
	Serve          *ServeConfig  `koanf:"serve"`

	// ProjectRoot is inferred at load time, not read from the file.
	ProjectRoot string `koanf:"-"`
}

// AuditConfig tunes the doctor checks.
type AuditConfig struct {
	Disabled          []string          `koanf:"disabled"`
	Severity          map[string]string `koanf:"severity"`
	MaxTodosPerModule int               `koanf:"max_todos_per_module"`

	MaxSuppressionsPerModule int `koanf:"max_suppressions_per_module"`
}

// ServeConfig holds settings for the serve command.
type ServeConfig struct {
	Addr string `koanf:"addr"`
}

// GetServeConfig returns the serve config with defaults applied.
func (c *Config) GetServeConfig() *ServeConfig {
	if c.Serve == nil {
		return &ServeConfig{Addr: intconfig.DefaultServeAddr}
	}
	s := c.Serve
	if s.Addr == "" {
		s.Addr = intconfig.DefaultServeAddr
	}
	return s
}

// Default configuration values shared with internal/config.
const (
	DefaultRulesPath      = intconfig.DefaultRulesPath
	DefaultPredicatesPath = intconfig.DefaultPredicatesPath
	DefaultStateFile      = intconfig.DefaultStateFile
	DefaultStateDriver    = intconfig.DefaultStateDriver
	DefaultReportsDir     = intconfig.DefaultReportsDir
	DefaultOutput         = intconfig.DefaultOutput
)
