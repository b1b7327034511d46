package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tmdbg/internal/breakpoint"
	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/rules"
	"github.com/roach88/tmdbg/internal/tape"
)

// ProbeMode selects when RunUntilBreakOrHalt consults breakpoints.
type ProbeMode int

const (
	// ProbeScan probes once per rule examined during the table scan.
	ProbeScan ProbeMode = iota
	// ProbeStep probes once per committed transition.
	ProbeStep
)

// String returns the mode name used by flags and configuration.
func (m ProbeMode) String() string {
	switch m {
	case ProbeScan:
		return "scan"
	case ProbeStep:
		return "step"
	default:
		return fmt.Sprintf("ProbeMode(%d)", int(m))
	}
}

// ParseProbeMode converts "scan" or "step".
func ParseProbeMode(s string) (ProbeMode, error) {
	switch s {
	case "scan", "":
		return ProbeScan, nil
	case "step":
		return ProbeStep, nil
	default:
		return 0, fmt.Errorf("invalid probe mode %q: must be scan or step", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for configuration.
func (m *ProbeMode) UnmarshalText(text []byte) error {
	mode, err := ParseProbeMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Status is the machine's control status.
type Status int

const (
	Running Status = iota
	Halted
)

// String returns "running" or "halted".
func (s Status) String() string {
	if s == Halted {
		return "halted"
	}
	return "running"
}

// Engine runs one machine. Not safe for concurrent use.
type Engine struct {
	tape  *tape.Tape
	rules *rules.Table
	bps   *breakpoint.Set

	state    int
	head     int
	halted   bool
	lastRule ir.Rule
	hasLast  bool

	clock    *Clock
	probe    ProbeMode
	runID    string
	runIDGen RunIDGenerator
	recorder Recorder
	logger   *slog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithProbeMode selects breakpoint probing for RunUntilBreakOrHalt.
//
// Default: ProbeScan
func WithProbeMode(mode ProbeMode) EngineOption {
	return func(e *Engine) {
		e.probe = mode
	}
}

// WithBreakpoints makes the engine consult bps instead of its own empty set.
func WithBreakpoints(bps *breakpoint.Set) EngineOption {
	return func(e *Engine) {
		e.bps = bps
	}
}

// WithRecorder sends every committed transition to r.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithRunIDGenerator overrides the UUIDv7 run id generator.
func WithRunIDGenerator(gen RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDGen = gen
	}
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over t and tbl, starting in state with the head
// at head. The engine takes ownership of t.
func New(t *tape.Tape, tbl *rules.Table, state, head int, opts ...EngineOption) *Engine {
	e := &Engine{
		tape:     t,
		rules:    tbl,
		bps:      &breakpoint.Set{},
		state:    state,
		head:     head,
		clock:    NewClock(),
		probe:    ProbeScan,
		runIDGen: UUIDv7Generator{},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.runID = e.runIDGen.Generate()
	return e
}

// Load validates desc's rules and builds an Engine from it.
// Returns a *rules.NonDeterminismError if the table is not deterministic.
func Load(desc ir.Description, opts ...EngineOption) (*Engine, error) {
	tbl, err := rules.Load(desc.Rules)
	if err != nil {
		return nil, err
	}
	return New(tape.New(desc.Tape), tbl, desc.State, desc.Head, opts...), nil
}

// State returns the current state.
func (e *Engine) State() int { return e.state }

// Head returns the head position.
func (e *Engine) Head() int { return e.head }

// Halted reports whether no rule matched at some point. Halting is permanent.
func (e *Engine) Halted() bool { return e.halted }

// Status returns Running or Halted.
func (e *Engine) Status() Status {
	if e.halted {
		return Halted
	}
	return Running
}

// LastRule returns the most recently applied rule.
func (e *Engine) LastRule() (ir.Rule, bool) {
	return e.lastRule, e.hasLast
}

// Steps returns the number of committed transitions.
func (e *Engine) Steps() int64 { return e.clock.Current() }

// RunID identifies this engine instance in recorded traces.
func (e *Engine) RunID() string { return e.runID }

// ProbeMode returns the configured breakpoint probing mode.
func (e *Engine) ProbeMode() ProbeMode { return e.probe }

// Breakpoints returns the set consulted by RunUntilBreakOrHalt.
func (e *Engine) Breakpoints() *breakpoint.Set { return e.bps }

// Rules returns the rule table in load order.
func (e *Engine) Rules() []ir.Rule { return e.rules.All() }

// Symbol returns the tape symbol at pos.
func (e *Engine) Symbol(pos int) ir.Symbol { return e.tape.Read(pos) }

// TapeContents returns the written extent of the tape.
func (e *Engine) TapeContents() string { return e.tape.String() }

// StepResult reports the outcome of a single Step.
type StepResult struct {
	// Executed is true if a rule was applied; Rule is then that rule.
	Executed bool
	Rule     ir.Rule

	// Halted is true if no rule matched. State is the final state.
	Halted bool
	State  int
}

// String formats an executed rule as "state read -> write next move" and a
// halt as "machine stopped in state N".
func (r StepResult) String() string {
	if r.Executed {
		return r.Rule.String()
	}
	return fmt.Sprintf("machine stopped in state %d", r.State)
}

// Step performs one transition.
//
// If no rule matches (state, symbol under head), the machine halts and the
// tape, state and head are left untouched. Calling Step on a halted machine
// reports the halt again without doing anything.
func (e *Engine) Step(ctx context.Context) StepResult {
	if e.halted {
		return StepResult{Halted: true, State: e.state}
	}

	i := e.rules.IndexOf(e.state, e.tape.Read(e.head))
	if i < 0 {
		e.halt()
		return StepResult{Halted: true, State: e.state}
	}

	r := e.rules.At(i)
	e.apply(ctx, i, r)
	return StepResult{Executed: true, Rule: r, State: e.state}
}

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeHalted means no rule matched; the machine is Halted.
	OutcomeHalted Outcome = iota + 1
	// OutcomeBreakpoint means a breakpoint fired; the machine is Running.
	OutcomeBreakpoint
	// OutcomeInterrupted means the context was cancelled; the machine is Running.
	OutcomeInterrupted
)

// String returns a lowercase outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeHalted:
		return "halted"
	case OutcomeBreakpoint:
		return "breakpoint"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// RunResult reports the outcome of RunUntilBreakOrHalt.
type RunResult struct {
	Outcome Outcome

	// Hit is the breakpoint that stopped the run (OutcomeBreakpoint only).
	Hit breakpoint.Breakpoint

	// Steps is the number of transitions committed by this run.
	Steps int

	State int
	Head  int
}

// RunUntilBreakOrHalt applies transitions until the machine halts, a
// breakpoint fires or ctx is cancelled.
func (e *Engine) RunUntilBreakOrHalt(ctx context.Context) RunResult {
	if e.halted {
		return e.result(OutcomeHalted, breakpoint.Breakpoint{}, 0)
	}
	if e.probe == ProbeStep {
		return e.runPerStep(ctx)
	}
	return e.runScan(ctx)
}

// runScan probes breakpoints for every rule examined. The scan restarts at
// index 0 after each applied rule and halts once it runs off the end.
func (e *Engine) runScan(ctx context.Context) RunResult {
	steps := 0
	for i := 0; i < e.rules.Len(); {
		if hit, ok := e.probeContext(); ok {
			return e.stopAt(hit, steps)
		}

		r := e.rules.At(i)
		if e.bps.CheckAndConsumeSymbol(breakpoint.Write, r.Write) {
			return e.stopAt(breakpoint.OnWrite(r.Write), steps)
		}

		if !r.Matches(e.state, e.tape.Read(e.head)) {
			i++
			continue
		}

		e.apply(ctx, i, r)
		steps++
		if ctx.Err() != nil {
			return e.result(OutcomeInterrupted, breakpoint.Breakpoint{}, steps)
		}
		i = 0
	}

	e.halt()
	return e.result(OutcomeHalted, breakpoint.Breakpoint{}, steps)
}

// runPerStep probes position, state and read once per transition, then the
// write symbol of the rule about to be applied.
func (e *Engine) runPerStep(ctx context.Context) RunResult {
	steps := 0
	for {
		if hit, ok := e.probeContext(); ok {
			return e.stopAt(hit, steps)
		}

		i := e.rules.IndexOf(e.state, e.tape.Read(e.head))
		if i < 0 {
			e.halt()
			return e.result(OutcomeHalted, breakpoint.Breakpoint{}, steps)
		}

		r := e.rules.At(i)
		if e.bps.CheckAndConsumeSymbol(breakpoint.Write, r.Write) {
			return e.stopAt(breakpoint.OnWrite(r.Write), steps)
		}

		e.apply(ctx, i, r)
		steps++
		if ctx.Err() != nil {
			return e.result(OutcomeInterrupted, breakpoint.Breakpoint{}, steps)
		}
	}
}

// probeContext checks position, state and read breakpoints in that order,
// consuming at most one.
func (e *Engine) probeContext() (breakpoint.Breakpoint, bool) {
	if e.bps.CheckAndConsume(breakpoint.Position, e.head) {
		return breakpoint.AtPosition(e.head), true
	}
	if e.bps.CheckAndConsume(breakpoint.State, e.state) {
		return breakpoint.AtState(e.state), true
	}
	sym := e.tape.Read(e.head)
	if e.bps.CheckAndConsumeSymbol(breakpoint.Read, sym) {
		return breakpoint.OnRead(sym), true
	}
	return breakpoint.Breakpoint{}, false
}

func (e *Engine) stopAt(hit breakpoint.Breakpoint, steps int) RunResult {
	hit.Active = false
	e.logger.Debug("breakpoint hit", "run_id", e.runID, "breakpoint", hit.String(), "state", e.state, "head", e.head)
	return e.result(OutcomeBreakpoint, hit, steps)
}

func (e *Engine) result(o Outcome, hit breakpoint.Breakpoint, steps int) RunResult {
	return RunResult{Outcome: o, Hit: hit, Steps: steps, State: e.state, Head: e.head}
}

// apply commits rule r (at load-order index i) at the current head.
func (e *Engine) apply(ctx context.Context, i int, r ir.Rule) {
	before := e.head

	e.lastRule, e.hasLast = r, true
	e.tape.Write(e.head, r.Write)
	e.state = r.Next
	e.head += r.Move.Delta()

	seq := e.clock.Next()
	e.logger.Debug("step", "run_id", e.runID, "seq", seq, "rule", r.String(), "head", e.head)

	if e.recorder == nil {
		return
	}
	rec := StepRecord{
		RunID:      e.runID,
		Seq:        seq,
		RuleIndex:  i,
		Rule:       r,
		HeadBefore: before,
		HeadAfter:  e.head,
	}
	// Log and continue: a failing trace sink must not change execution.
	if err := e.recorder.RecordStep(ctx, rec); err != nil {
		e.logger.Error("failed to record step", "run_id", e.runID, "seq", seq, "error", err)
	}
}

func (e *Engine) halt() {
	e.halted = true
	e.logger.Debug("machine halted", "run_id", e.runID, "state", e.state, "head", e.head, "steps", e.clock.Current())
}
