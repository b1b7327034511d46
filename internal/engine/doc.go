// Package engine executes a deterministic single-tape Turing machine.
//
// The Engine owns the tape, the validated rule table, the breakpoint set,
// the current state and the head position. Everything is mutated only by
// Step and RunUntilBreakOrHalt; List and Show are read-only.
//
// EXECUTION MODEL:
//
// Step performs exactly one transition: look up the rule for
// (state, symbol under head); if there is one, write, change state and move;
// if not, the machine is Halted. Halted is terminal.
//
// RunUntilBreakOrHalt repeats transitions until no rule matches or a
// breakpoint fires. Breakpoints are probed during the linear scan over the
// rule table (ProbeScan, the default): for every rule examined, position,
// state, read symbol and the examined rule's write symbol are checked in
// that order, whether or not that rule is the one that will apply. After a
// transition is applied the scan restarts at the first rule. ProbeStep
// probes once per committed transition instead.
//
// A breakpoint stop leaves the machine running with nothing mutated in the
// interrupted iteration.
//
// The engine is single-threaded and takes no locks. Context cancellation
// is the only way to stop a run that neither halts nor hits a breakpoint.
package engine
