package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// AnalysisConfig holds document-analysis provider settings.
type AnalysisConfig struct {
	Timeout        time.Duration `yaml:"timeout"          env:"ANALYSIS_TIMEOUT"          env-default:"10m"`
	MaxDocuments   int           `yaml:"max_documents"    env:"ANALYSIS_MAX_DOCUMENTS"    env-default:"50"`
	MaxPromptPacks int           `yaml:"max_prompt_packs" env:"ANALYSIS_MAX_PROMPT_PACKS" env-default:"10"`
}

// ReconcileConfig holds settings for the orphan-reconciliation job.
type ReconcileConfig struct {
	BatchSize int           `yaml:"batch_size" env:"RECONCILE_BATCH_SIZE" env-default:"500"`
	Timeout   time.Duration `yaml:"timeout"    env:"RECONCILE_TIMEOUT"    env-default:"5m"`
}
