package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// Machine descriptions in the text format shared by tests.
const (
	// FlipMachine inverts 1010 and halts on the first blank after four
	// transitions in state 0.
	FlipMachine = "1010\n0\n0\n0 1 0 0 R\n0 0 1 0 R\n"

	// UnaryMachine appends a stroke to 11 and halts in state 1 with the
	// head on position 1.
	UnaryMachine = "11\n0\n0\n0 1 1 0 R\n0 _ 1 1 L\n"

	// ForeverMachine moves right over blanks and never halts.
	ForeverMachine = "_\n0\n0\n0 _ _ 0 R\n"

	// NonDeterministicMachine has two rules for (0, a).
	NonDeterministicMachine = "a\n0\n0\n0 a b 0 R\n0 a c 1 L\n"

	// MalformedMachine has a rule with four fields.
	MalformedMachine = "a\n0\n0\n0 a b 0\n"
)

// WriteMachine writes content to name inside a fresh temp directory and
// returns the path.
func WriteMachine(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write machine %s: %v", name, err)
	}
	return path
}

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
