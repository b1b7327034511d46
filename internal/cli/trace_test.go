package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/store"
	"github.com/roach88/tmdbg/internal/testutil"
)

// recordedRun runs the flip machine into a fresh trace store and returns
// the machine path and the database path.
func recordedRun(t *testing.T) (string, string) {
	t.Helper()
	path := testutil.WriteMachine(t, "flip.tm", testutil.FlipMachine)
	dbPath := filepath.Join(t.TempDir(), "trace.db")

	res := runCLI(t, testOptions(nil), "run", "--db", dbPath, path)
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	return path, dbPath
}

func TestTrace_ListRuns(t *testing.T) {
	path, dbPath := recordedRun(t)

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath)
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	assert.Contains(t, res.Stdout, "run-cli-1")
	assert.Contains(t, res.Stdout, "halted")
	assert.Contains(t, res.Stdout, "steps=4")
	assert.Contains(t, res.Stdout, path)
}

func TestTrace_FilterByMachine(t *testing.T) {
	path, dbPath := recordedRun(t)
	desc, err := loader.Load(path)
	require.NoError(t, err)

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--machine", ir.MustMachineHash(desc), "--format", "json")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)

	var resp struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-cli-1", resp.Data[0].ID)

	res = runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--machine", "0000")
	require.Equal(t, ExitSuccess, res.Code)
	assert.Equal(t, "No runs recorded.\n", res.Stdout)
}

func TestTrace_ShowRun(t *testing.T) {
	_, dbPath := recordedRun(t)

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	assert.Contains(t, res.Stdout, "Run: run-cli-1\n")
	assert.Contains(t, res.Stdout, "Status: halted\n")
	assert.Contains(t, res.Stdout, "[1] #0 0 1 -> 0 0 R  (head 0 -> 1)\n")
	assert.Contains(t, res.Stdout, "[4] #1 0 0 -> 1 0 R  (head 3 -> 4)\n")
	assert.Contains(t, res.Stdout, `Final: state 0, head 4, tape "0101", 4 step(s)`)
}

func TestTrace_ShowRunJSON(t *testing.T) {
	_, dbPath := recordedRun(t)

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1", "--format", "json")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &resp))
	assert.Equal(t, "run-cli-1", resp.Data.Run.ID)
	require.Len(t, resp.Data.Steps, 4)

	ruleHash, err := ir.RuleHash(ir.Rule{State: 0, Read: '0', Write: '1', Next: 0, Move: ir.MoveRight})
	require.NoError(t, err)
	assert.Equal(t, TraceStep{Seq: 2, RuleIndex: 1, Rule: "0 0 -> 1 0 R", RuleHash: ruleHash, HeadBefore: 1, HeadAfter: 2}, resp.Data.Steps[1])
	assert.NotEqual(t, resp.Data.Steps[0].RuleHash, resp.Data.Steps[1].RuleHash)
}

func TestTrace_Errors(t *testing.T) {
	_, dbPath := recordedRun(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no database", []string{"trace"}, "[ERR] trace store not set: use --db or TMDBG_TRACE_DB\n"},
		{"missing database", []string{"trace", "--db", filepath.Join(t.TempDir(), "nope.db")}, "[ERR] trace store not found: "},
		{"unknown run", []string{"trace", "--db", dbPath, "--run", "nope"}, "[ERR] run not found: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, testOptions(nil), tt.args...)
			assert.Equal(t, ExitFailure, res.Code)
			assert.Contains(t, res.Stdout, tt.want)
		})
	}
}

func TestTrace_EmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trace.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	res := runCLI(t, testOptions(map[string]string{"TMDBG_TRACE_DB": dbPath}), "trace")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	assert.Equal(t, "No runs recorded.\n", res.Stdout)
}

func TestTrace_Verify(t *testing.T) {
	path, dbPath := recordedRun(t)

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1", "--verify")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	assert.Contains(t, res.Stdout, "✓ replay matches 4 step(s)\n")

	res = runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1", "--verify", "--format", "json")
	require.Equal(t, ExitSuccess, res.Code, res.Stdout)
	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &resp))
	assert.True(t, resp.Data.Verified)

	// Editing the machine after the run changes its fingerprint.
	require.NoError(t, os.WriteFile(path, []byte(testutil.UnaryMachine), 0o644))
	res = runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1", "--verify")
	assert.Equal(t, ExitFailure, res.Code)
	assert.Equal(t, "[ERR] machine changed since run was recorded: "+path+"\n", res.Stdout)
}

func TestTrace_VerifyDetectsEditedStore(t *testing.T) {
	_, dbPath := recordedRun(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE steps SET write = '9' WHERE run_id = ? AND seq = 2`, "run-cli-1")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	res := runCLI(t, testOptions(nil), "trace", "--db", dbPath, "--run", "run-cli-1", "--verify")
	assert.Equal(t, ExitFailure, res.Code)
	assert.Equal(t, "[ERR] replay diverged\n", res.Stdout)
}

func TestReplayFailure(t *testing.T) {
	diverged := replayFailure(fmt.Errorf("verify: %w", &engine.ReplayError{Seq: 3}))
	assert.Equal(t, "replay diverged", diverged.Message)

	cancelled := replayFailure(context.Canceled)
	assert.Equal(t, "replay interrupted", cancelled.Message)
	assert.ErrorIs(t, cancelled, context.Canceled)
}

func TestTrace_VerifyRequiresRun(t *testing.T) {
	res := runCLI(t, testOptions(nil), "trace", "--verify")
	assert.Equal(t, ExitUsage, res.Code)
	assert.Equal(t, "[ERR] --verify requires --run\n", res.Stdout)
}
