package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmdbg/internal/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPrompt, cfg.Prompt)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, engine.ProbeScan, cfg.ProbeMode)
	assert.Empty(t, cfg.HistoryFile)
	assert.Empty(t, cfg.LogFile)
	assert.Empty(t, cfg.TraceDB)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TMDBG_PROMPT", "tm> ")
	t.Setenv("TMDBG_HISTORY_FILE", "/tmp/hist")
	t.Setenv("TMDBG_LOG_LEVEL", "debug")
	t.Setenv("TMDBG_LOG_FILE", "/tmp/tmdbg.log")
	t.Setenv("TMDBG_PROBE_MODE", "step")
	t.Setenv("TMDBG_TRACE_DB", "/tmp/trace.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Config{
		Prompt:      "tm> ",
		HistoryFile: "/tmp/hist",
		LogLevel:    slog.LevelDebug,
		LogFile:     "/tmp/tmdbg.log",
		ProbeMode:   engine.ProbeStep,
		TraceDB:     "/tmp/trace.db",
	}, cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"bad probe mode", map[string]string{"TMDBG_PROBE_MODE": "rule"}},
		{"bad log level", map[string]string{"TMDBG_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse env:")
		})
	}
}
