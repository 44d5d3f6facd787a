package config

import (
	"fmt"

	"github.com/lukhas-labs/starlift/internal/cli/output"
)

// Validate rejects configurations the commands cannot act on.
func Validate(cfg *Config) error {
	switch cfg.StateDriver {
	case "", "sqlite":
	case "postgres":
		if cfg.StateDSN == "" {
			return fmt.Errorf("state_driver postgres requires state_dsn")
		}
	default:
		return fmt.Errorf("unsupported state_driver %q (sqlite or postgres)", cfg.StateDriver)
	}

	if !output.ValidMode(cfg.OutputFormat) {
		return fmt.Errorf("unsupported output format %q (auto|text|markdown|json)", cfg.OutputFormat)
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	if cfg.Audit != nil {
		for check, severity := range cfg.Audit.Severity {
			switch severity {
			case "error", "warning", "info", "hint":
			default:
				return fmt.Errorf("audit.severity.%s: unknown severity %q", check, severity)
			}
		}
	}

	return nil
}
