package cli

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_StderrOnly(t *testing.T) {
	var stderr bytes.Buffer
	logger, closeFn, err := newLogger(&stderr, slog.LevelWarn, "")
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown", "run_id", "r1")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "msg=shown run_id=r1")
}

func TestNewLogger_FanoutToFile(t *testing.T) {
	var stderr bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "tmdbg.log")

	logger, closeFn, err := newLogger(&stderr, slog.LevelDebug, logPath)
	require.NoError(t, err)
	logger.Debug("step", "seq", 1)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"step","seq":1`)
	assert.Contains(t, stderr.String(), "msg=step seq=1")
}

func TestNewLogger_BadFile(t *testing.T) {
	_, _, err := newLogger(&bytes.Buffer{}, slog.LevelInfo, filepath.Join(t.TempDir(), "missing", "x.log"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log file")
}
