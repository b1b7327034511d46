package store

import (
	"context"
	"fmt"

	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
)

// StatusRunning marks a run that has not been finished. Finished runs
// carry the engine.Outcome name.
const StatusRunning = "running"

// BeginRun inserts the run row for runID before its first transition.
// Uses ON CONFLICT(id) DO NOTHING so retrying with the same id is harmless.
func (s *Store) BeginRun(ctx context.Context, runID string, desc ir.Description) error {
	hash, err := ir.MachineHash(desc)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, machine_hash, source, start_state, start_head, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, hash, desc.Source, desc.State, desc.Head, StatusRunning)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordStep inserts one committed transition. Duplicate (run_id, seq)
// pairs are ignored.
//
// Note: the run must have been created with BeginRun (foreign key constraint).
func (s *Store) RecordStep(ctx context.Context, rec engine.StepRecord) error {
	r := rec.Rule
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps
		(run_id, seq, rule_index, state, read, write, next, move, head_before, head_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.RunID,
		rec.Seq,
		rec.RuleIndex,
		r.State,
		r.Read.String(),
		r.Write.String(),
		r.Next,
		r.Move.String(),
		rec.HeadBefore,
		rec.HeadAfter,
	)
	if err != nil {
		return fmt.Errorf("record step %d of run %s: %w", rec.Seq, rec.RunID, err)
	}
	return nil
}

// RunSummary is the final state written by FinishRun.
type RunSummary struct {
	Status string
	State  int
	Head   int
	Tape   string
	Steps  int64
}

// FinishRun stores how the run ended. Returns ErrRunNotFound if BeginRun
// was never called for runID.
func (s *Store) FinishRun(ctx context.Context, runID string, sum RunSummary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, final_state = ?, final_head = ?, final_tape = ?, steps = ?
		WHERE id = ?
	`, sum.Status, sum.State, sum.Head, sum.Tape, sum.Steps, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

var _ engine.Recorder = (*Store)(nil)
