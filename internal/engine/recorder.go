package engine

import (
	"context"

	"github.com/roach88/tmdbg/internal/ir"
)

// StepRecord describes one committed transition.
type StepRecord struct {
	RunID string
	Seq   int64

	// RuleIndex is the load-order index of the applied rule.
	RuleIndex int
	Rule      ir.Rule

	HeadBefore int
	HeadAfter  int
}

// Recorder receives every committed transition.
//
// The engine never fails because of a recorder: errors are logged and
// execution continues, so a broken trace sink cannot change machine
// behavior.
type Recorder interface {
	RecordStep(ctx context.Context, rec StepRecord) error
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, rec StepRecord) error

// RecordStep calls f.
func (f RecorderFunc) RecordStep(ctx context.Context, rec StepRecord) error {
	return f(ctx, rec)
}
