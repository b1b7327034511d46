// Package config loads tmdbg settings from the environment.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/tmdbg/internal/engine"
)

// DefaultPrompt is the debugger prompt when TMDBG_PROMPT is unset.
const DefaultPrompt = "esp> "

// Config holds settings shared by every command. Command-line flags
// override the values loaded here.
type Config struct {
	Prompt      string           `env:"TMDBG_PROMPT"       envDefault:"esp> "`
	HistoryFile string           `env:"TMDBG_HISTORY_FILE"`
	LogLevel    slog.Level       `env:"TMDBG_LOG_LEVEL"    envDefault:"warn"`
	LogFile     string           `env:"TMDBG_LOG_FILE"`
	ProbeMode   engine.ProbeMode `env:"TMDBG_PROBE_MODE"   envDefault:"scan"`
	TraceDB     string           `env:"TMDBG_TRACE_DB"`
}

// Load parses Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadFrom parses Config from the given variables instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
