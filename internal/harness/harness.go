package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/tmdbg/internal/breakpoint"
	"github.com/roach88/tmdbg/internal/config"
	"github.com/roach88/tmdbg/internal/debugger"
	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/store"
)

// DefaultRunID is the run id used when a scenario does not set one.
const DefaultRunID = "scenario-run"

// DefaultTimeout bounds a continue command when a scenario sets no timeout.
const DefaultTimeout = 10 * time.Second

// Harness is the test execution engine.
// It runs scenarios with a fixed run id and an isolated store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the machine and build the engine
// 3. Feed the commands through a debugger, capturing the transcript
// 4. Evaluate assertions against the final machine
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	desc, err := scenarioMachine(scenario)
	if err != nil {
		return nil, err
	}

	probe, err := engine.ParseProbeMode(scenario.Probe)
	if err != nil {
		return nil, err
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}

	eng, err := engine.Load(desc,
		engine.WithProbeMode(probe),
		engine.WithRecorder(h.store),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load machine: %w", err)
	}

	for i, spec := range scenario.Breakpoints {
		bp, err := breakpoint.ParseSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("breakpoints[%d]: %w", i, err)
		}
		eng.Breakpoints().Add(bp)
	}

	if err := h.store.BeginRun(ctx, runID, desc); err != nil {
		return nil, fmt.Errorf("failed to begin run: %w", err)
	}

	timeout := scenario.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var transcript bytes.Buffer
	in := debugger.NewScriptInput(scenario.Commands, &transcript, config.DefaultPrompt)
	dbg := debugger.New(eng, in, &transcript,
		debugger.WithLogger(h.logger),
		debugger.WithInterrupt(func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithTimeout(ctx, timeout)
		}),
	)
	if err := dbg.Run(ctx); err != nil {
		return nil, fmt.Errorf("debugger session failed: %w", err)
	}

	status := engine.Running.String()
	if eng.Halted() {
		status = engine.Halted.String()
	}
	err = h.store.FinishRun(ctx, runID, store.RunSummary{
		Status: status,
		State:  eng.State(),
		Head:   eng.Head(),
		Tape:   eng.TapeContents(),
		Steps:  eng.Steps(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}

	steps, err := h.store.ReadSteps(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read steps: %w", err)
	}

	result := NewResult()
	result.Transcript = transcript.String()
	result.State = eng.State()
	result.Head = eng.Head()
	result.Halted = eng.Halted()
	result.Tape = eng.TapeContents()
	result.Steps = steps

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", runID,
		"steps", len(steps),
		"pass", result.Pass,
	)
	return result, nil
}

// scenarioMachine loads the scenario's machine from its file or inline
// definition.
func scenarioMachine(s *Scenario) (ir.Description, error) {
	if s.Inline == nil {
		desc, err := loader.Load(s.Machine)
		if err != nil {
			return ir.Description{}, fmt.Errorf("failed to load machine: %w", err)
		}
		return desc, nil
	}

	// Inline rules are parsed with the text format; the header is set
	// directly so an empty tape stays empty.
	m := s.Inline
	text := loader.FormatText(ir.Description{}) + strings.Join(m.Rules, "\n") + "\n"
	desc, err := loader.ParseText(strings.NewReader(text), s.Name)
	if err != nil {
		return ir.Description{}, fmt.Errorf("failed to parse inline machine: %w", err)
	}
	desc.Tape = m.Tape
	desc.Head = m.Head
	desc.State = m.State
	return desc, nil
}
