package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SourcePath string // .loom files
	OutputDir  string // compiled artifacts

	LogFormat   string
	LogLevel    string
	WorkerCount int

	// Docs enables documentation chunk generation in compiled artifacts.
	Docs bool

	// IgnoreModuleConflict suppresses the warning emitted when a compiled
	// module is already loaded in the running session.
	IgnoreModuleConflict bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.SourcePath == "" {
		return nil, errors.New("SourcePath is a required configuration field and cannot be empty")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &cfg, nil
}
