package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tmdbg/internal/ir"
)

// ReplayError reports the first recorded transition a replay could not
// reproduce.
type ReplayError struct {
	// Seq is the sequence number of the diverging transition.
	Seq int64

	// Want is the recorded transition.
	Want StepRecord

	// Got is the transition the replay committed. Zero when Halted.
	Got StepRecord

	// Halted is true if the replayed machine had no rule to apply.
	Halted bool
}

// Error implements the error interface.
func (e *ReplayError) Error() string {
	if e.Halted {
		return fmt.Sprintf("replay diverged at seq %d: machine halted, recorded #%d %s",
			e.Seq, e.Want.RuleIndex, e.Want.Rule)
	}
	return fmt.Sprintf("replay diverged at seq %d: recorded #%d %s (head %d -> %d), replayed #%d %s (head %d -> %d)",
		e.Seq,
		e.Want.RuleIndex, e.Want.Rule, e.Want.HeadBefore, e.Want.HeadAfter,
		e.Got.RuleIndex, e.Got.Rule, e.Got.HeadBefore, e.Got.HeadAfter)
}

// IsReplayMismatch returns true if err is or wraps a ReplayError.
func IsReplayMismatch(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}

// Replay loads desc and steps it once per recorded transition, comparing
// each committed transition with the record. Run ids are not compared.
//
// On success the returned engine is positioned after the last recorded
// transition, so callers can compare its state, head and tape with the
// recorded outcome. Returns a *ReplayError on the first divergence and
// ctx.Err() if ctx is cancelled between transitions.
func Replay(ctx context.Context, desc ir.Description, recorded []StepRecord, opts ...EngineOption) (*Engine, error) {
	var last StepRecord
	capture := RecorderFunc(func(_ context.Context, rec StepRecord) error {
		last = rec
		return nil
	})

	opts = append(opts, WithRecorder(capture))
	e, err := Load(desc, opts...)
	if err != nil {
		return nil, err
	}

	for _, want := range recorded {
		if err := ctx.Err(); err != nil {
			return e, err
		}
		if res := e.Step(ctx); !res.Executed {
			return e, &ReplayError{Seq: want.Seq, Want: want, Halted: true}
		}
		got := last
		got.RunID = want.RunID
		if got != want {
			return e, &ReplayError{Seq: want.Seq, Want: want, Got: got}
		}
	}
	return e, nil
}
