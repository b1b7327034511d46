package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmdbg/internal/ir"
)

func unaryDescription() ir.Description {
	return ir.Description{
		Tape: "11",
		Rules: []ir.Rule{
			rule(0, '1', '1', 0, 'R'),
			rule(0, '_', '1', 1, 'L'),
		},
	}
}

// recordRun runs desc to halt and returns every committed transition.
func recordRun(t *testing.T, desc ir.Description) []StepRecord {
	t.Helper()
	var recs []StepRecord
	e := newTestEngine(t, desc, WithRecorder(RecorderFunc(func(_ context.Context, rec StepRecord) error {
		recs = append(recs, rec)
		return nil
	})))
	res := e.RunUntilBreakOrHalt(context.Background())
	require.Equal(t, OutcomeHalted, res.Outcome)
	return recs
}

func TestReplay_ReproducesRecordedRun(t *testing.T) {
	recs := recordRun(t, unaryDescription())
	require.Len(t, recs, 3)

	e, err := Replay(context.Background(), unaryDescription(), recs, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 1, e.State())
	assert.Equal(t, 1, e.Head())
	assert.Equal(t, "111", e.TapeContents())
	assert.Equal(t, int64(3), e.Steps())
	assert.False(t, e.Halted(), "replay stops after the last recorded transition")
}

func TestReplay_IgnoresRunID(t *testing.T) {
	recs := recordRun(t, unaryDescription())
	for i := range recs {
		recs[i].RunID = "recorded-elsewhere"
	}

	_, err := Replay(context.Background(), unaryDescription(), recs, WithLogger(quietLogger()))
	require.NoError(t, err)
}

func TestReplay_DetectsChangedRule(t *testing.T) {
	recs := recordRun(t, unaryDescription())

	changed := unaryDescription()
	changed.Rules[1] = rule(0, '_', '2', 1, 'L')

	_, err := Replay(context.Background(), changed, recs, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, IsReplayMismatch(err))

	var re *ReplayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(3), re.Seq)
	assert.False(t, re.Halted)
	assert.Equal(t, ir.Symbol('2'), re.Got.Rule.Write)
	assert.Contains(t, err.Error(), "replay diverged at seq 3")
}

func TestReplay_DetectsChangedTape(t *testing.T) {
	recs := recordRun(t, unaryDescription())

	shorter := unaryDescription()
	shorter.Tape = "1"

	_, err := Replay(context.Background(), shorter, recs, WithLogger(quietLogger()))
	var re *ReplayError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, int64(2), re.Seq)
	assert.Equal(t, 0, re.Want.RuleIndex)
	assert.Equal(t, 1, re.Got.RuleIndex)
}

func TestReplay_HaltedBeyondRecord(t *testing.T) {
	recs := recordRun(t, unaryDescription())
	extra := append(recs, StepRecord{Seq: 4, Rule: rule(1, '1', '1', 1, 'R')})

	_, err := Replay(context.Background(), unaryDescription(), extra, WithLogger(quietLogger()))
	var re *ReplayError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Halted)
	assert.Equal(t, int64(4), re.Seq)
	assert.Contains(t, err.Error(), "machine halted")
}

func TestReplay_Cancelled(t *testing.T) {
	recs := recordRun(t, unaryDescription())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Replay(ctx, unaryDescription(), recs, WithLogger(quietLogger()))
	require.ErrorIs(t, err, context.Canceled)
}
