package app

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string

	// ManifestsPath points at a directory of node manifest files (*.hcl).
	// Empty means only compiled-in modules are registered.
	ManifestsPath string

	LogFormat string // "text" or "json"
	LogLevel  string // "debug", "info", "warn", "error"

	// WorkerCount bounds the number of concurrently running blocking handlers.
	WorkerCount int

	// MonitorInterval is how often the system monitor samples RAM/CPU.
	// Zero uses the monitor package default.
	MonitorInterval time.Duration
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("listen address must not be empty")
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
