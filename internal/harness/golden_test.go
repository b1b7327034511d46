package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Session(t *testing.T) {
	s := &Scenario{
		Name:        "unary_session",
		Description: "step through the unary successor machine",
		Inline: &InlineMachine{
			Tape:  "11",
			Rules: []string{"0 1 1 0 R", "0 _ 1 1 L"},
		},
		Commands:   []string{"list", "break pos 2", "continue", "list", "step", "show", "step"},
		Assertions: []Assertion{{Type: AssertHalted, Halted: boolPtr(true)}},
	}

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "flip.golden"),
		GoldenPath(filepath.Join("scenarios", "flip.yaml")))
}

func TestUpdateAndCompareGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "x.golden")
	result := &Result{Transcript: "esp> quit\nBye.\n"}

	_, err := CompareGolden(path, result)
	require.Error(t, err)

	require.NoError(t, UpdateGolden(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Transcript, string(data))

	match, err := CompareGolden(path, result)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = CompareGolden(path, &Result{Transcript: "different"})
	require.NoError(t, err)
	assert.False(t, match)
}
