package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be >= 1 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be in [0, max_conns] (got %d)", c.Database.MinConns)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug|info|warn|error (got %q)", c.Log.Level)
	}

	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be > 0 (got %v)", c.Analysis.Timeout)
	}
	if c.Analysis.MaxDocuments < 1 {
		return fmt.Errorf("analysis.max_documents must be >= 1 (got %d)", c.Analysis.MaxDocuments)
	}
	if c.Analysis.MaxPromptPacks < 1 {
		return fmt.Errorf("analysis.max_prompt_packs must be >= 1 (got %d)", c.Analysis.MaxPromptPacks)
	}

	if c.Reconcile.BatchSize < 1 {
		return fmt.Errorf("reconcile.batch_size must be >= 1 (got %d)", c.Reconcile.BatchSize)
	}

	return nil
}
