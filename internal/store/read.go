package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one row of the runs table. Final fields are zero while the run
// is still running.
type Run struct {
	ID          string `json:"id"`
	MachineHash string `json:"machine_hash"`
	Source      string `json:"source"`
	StartState  int    `json:"start_state"`
	StartHead   int    `json:"start_head"`
	Status      string `json:"status"`
	FinalState  int    `json:"final_state"`
	FinalHead   int    `json:"final_head"`
	FinalTape   string `json:"final_tape"`
	Steps       int64  `json:"steps"`
}

const runColumns = `id, machine_hash, source, start_state, start_head, status,
	final_state, final_head, final_tape, steps`

// ListRuns returns runs ordered by id. Run ids are UUIDv7, so this is
// creation order. A non-empty machineHash restricts the list to runs of
// that machine.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, machineHash string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if machineHash != "" {
		query += ` WHERE machine_hash = ?`
		args = append(args, machineHash)
	}
	query += ` ORDER BY id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// ReadSteps returns the recorded transitions of a run ordered by seq.
//
// Returns an empty slice (not nil) if the run recorded no steps.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]engine.StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, rule_index, state, read, write, next, move, head_before, head_after
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []engine.StepRecord{}
	for rows.Next() {
		rec, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var finalState, finalHead sql.NullInt64
	var finalTape sql.NullString

	err := sc.Scan(
		&run.ID, &run.MachineHash, &run.Source, &run.StartState, &run.StartHead, &run.Status,
		&finalState, &finalHead, &finalTape, &run.Steps,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.FinalState = int(finalState.Int64)
	run.FinalHead = int(finalHead.Int64)
	run.FinalTape = finalTape.String
	return run, nil
}

func scanStep(sc scanner) (engine.StepRecord, error) {
	var rec engine.StepRecord
	var read, write, move string

	if err := sc.Scan(
		&rec.RunID, &rec.Seq, &rec.RuleIndex,
		&rec.Rule.State, &read, &write, &rec.Rule.Next, &move,
		&rec.HeadBefore, &rec.HeadAfter,
	); err != nil {
		return engine.StepRecord{}, fmt.Errorf("scan step: %w", err)
	}

	var err error
	if rec.Rule.Read, err = ir.ParseSymbol(read); err != nil {
		return engine.StepRecord{}, fmt.Errorf("scan step %d: read %w", rec.Seq, err)
	}
	if rec.Rule.Write, err = ir.ParseSymbol(write); err != nil {
		return engine.StepRecord{}, fmt.Errorf("scan step %d: write %w", rec.Seq, err)
	}
	mv, err := ir.ParseSymbol(move)
	if err != nil {
		return engine.StepRecord{}, fmt.Errorf("scan step %d: move %w", rec.Seq, err)
	}
	rec.Rule.Move = ir.Movement(mv)
	return rec, nil
}
