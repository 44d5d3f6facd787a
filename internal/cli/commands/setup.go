// Package commands implements the starlift subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lukhas-labs/starlift/internal/cli/config"
	"github.com/lukhas-labs/starlift/internal/cli/output"
	"github.com/lukhas-labs/starlift/internal/engine"
	"github.com/lukhas-labs/starlift/internal/state"
	starpred "github.com/lukhas-labs/starlift/internal/starlark"
	"github.com/lukhas-labs/starlift/pkg/audit"
	"github.com/lukhas-labs/starlift/pkg/core"
	"github.com/lukhas-labs/starlift/pkg/rules"

	// Register the built-in audit checks.
	_ "github.com/lukhas-labs/starlift/pkg/audit/checks"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	root := getEnvOrDefault("STARLIFT_ROOT", ".")
	rulesPath := getEnvOrDefault("STARLIFT_RULES", config.DefaultRulesPath)
	predicatesPath := getEnvOrDefault("STARLIFT_PREDICATES", config.DefaultPredicatesPath)
	stateDriver := getEnvOrDefault("STARLIFT_STATE_DRIVER", config.DefaultStateDriver)
	statePath := getEnvOrDefault("STARLIFT_STATE_PATH", config.DefaultStateFile)
	stateDSN := os.Getenv("STARLIFT_STATE_DSN")
	reportsDir := getEnvOrDefault("STARLIFT_REPORTS_DIR", config.DefaultReportsDir)
	workers, _ := strconv.Atoi(os.Getenv("STARLIFT_WORKERS"))
	verbose := os.Getenv("STARLIFT_VERBOSE") == "true"
	outputFormat := os.Getenv("STARLIFT_OUTPUT")

	return &config.Config{
		Root:           root,
		RulesPath:      rulesPath,
		PredicatesPath: predicatesPath,
		StateDriver:    stateDriver,
		StatePath:      statePath,
		StateDSN:       stateDSN,
		ReportsDir:     reportsDir,
		Workers:        workers,
		Verbose:        verbose,
		OutputFormat:   outputFormat,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStore opens and migrates the state database for cfg.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLStore, error) {
	dsn := cfg.StatePath
	if cfg.StateDriver == state.DriverPostgres {
		dsn = cfg.StateDSN
	} else {
		// Ensure state directory exists
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, err
			}
		}
	}

	store, err := state.Open(cfg.StateDriver, dsn, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// auditConfig converts the YAML-shaped audit section into the checked form.
func auditConfig(cfg *config.Config) (*audit.Config, error) {
	if cfg.Audit == nil {
		return nil, nil
	}
	ac := audit.DefaultConfig()
	for _, id := range cfg.Audit.Disabled {
		ac.DisabledChecks[id] = true
	}
	for id, name := range cfg.Audit.Severity {
		sev, ok := core.ParseSeverity(name)
		if !ok {
			return nil, fmt.Errorf("audit.severity.%s: unknown severity %q", id, name)
		}
		ac.SeverityOverrides[id] = sev
	}
	if cfg.Audit.MaxTodosPerModule > 0 {
		ac.MaxTodosPerModule = cfg.Audit.MaxTodosPerModule
	}
	if cfg.Audit.MaxSuppressionsPerModule > 0 {
		ac.MaxSuppressionsPerModule = cfg.Audit.MaxSuppressionsPerModule
	}
	return &ac, nil
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	set, err := rules.Load(cfg.RulesPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	var predicates rules.PredicateEvaluator
	if cfg.PredicatesPath != "" {
		if _, statErr := os.Stat(cfg.PredicatesPath); statErr == nil {
			ev, err := starpred.LoadFile(cfg.PredicatesPath)
			if err != nil {
				_ = store.Close()
				return nil, err
			}
			predicates = ev
		}
	}

	auditCfg, err := auditConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Root:       cfg.Root,
		Excludes:   cfg.Excludes,
		Workers:    cfg.Workers,
		RuleSet:    set,
		Store:      store,
		Predicates: predicates,
		Audit:      auditCfg,
		Logger:     logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return eng, nil
}
