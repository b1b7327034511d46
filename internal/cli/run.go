package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tmdbg/internal/breakpoint"
	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	Breakpoints []string
}

// RunOutput is the result of a non-interactive run.
type RunOutput struct {
	RunID   string   `json:"run_id"`
	Outcome string   `json:"outcome"`
	State   int      `json:"state"`
	Head    int      `json:"head"`
	Tape    string   `json:"tape"`
	Steps   []string `json:"steps"`
	Hits    []string `json:"breakpoints"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a machine to completion",
		Long: `Run a machine without the interactive debugger.

Continues until the machine halts, printing every applied rule, each
breakpoint that fires, and the final tape. Breakpoints are given as
kind=value and fire once, exactly as in the debugger.

With --db (or TMDBG_TRACE_DB) the run and its transitions are recorded
in a SQLite trace store for the trace command.

Example:
  tmdbg run ./machines/flip.tm
  tmdbg run ./machines/flip.tm --break pos=3 --break write=0
  tmdbg run ./machines/flip.tm --db ./trace.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMachine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().StringArrayVar(&opts.Breakpoints, "break", nil, "breakpoint as kind=value (repeatable)")

	return cmd
}

func runMachine(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	bps := &breakpoint.Set{}
	for _, spec := range opts.Breakpoints {
		bp, err := breakpoint.ParseSpec(spec)
		if err != nil {
			return WrapExitError(ExitUsage, fmt.Sprintf("invalid breakpoint %q", spec), err)
		}
		bps.Add(bp)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := RunOutput{Steps: []string{}, Hits: []string{}}
	text := opts.Format != "json"
	recorders := []engine.Recorder{
		engine.RecorderFunc(func(_ context.Context, rec engine.StepRecord) error {
			out.Steps = append(out.Steps, rec.Rule.String())
			if text {
				fmt.Fprintln(cmd.OutOrStdout(), rec.Rule.String())
			}
			return nil
		}),
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.TraceDB
	}
	var st *store.Store
	if dbPath != "" {
		var err error
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitFailure, "opening trace store failed", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				opts.logger().Error("error closing database", "error", closeErr)
			}
		}()
		recorders = append(recorders, detachedRecorder{st})
	}

	idGen := opts.RunIDGenerator
	if idGen == nil {
		idGen = engine.UUIDv7Generator{}
	}
	desc, eng, err := loadEngine(opts.RootOptions, path,
		engine.WithBreakpoints(bps),
		engine.WithRunIDGenerator(idGen),
		engine.WithRecorder(fanoutRecorder(recorders)),
	)
	if err != nil {
		return err
	}
	out.RunID = eng.RunID()

	if st != nil {
		if err := st.BeginRun(ctx, eng.RunID(), desc); err != nil {
			return WrapExitError(ExitFailure, "recording run failed", err)
		}
		opts.logger().Info("recording run", "run_id", eng.RunID(), "db", dbPath)
	}

	var res engine.RunResult
	for {
		res = eng.RunUntilBreakOrHalt(ctx)
		if res.Outcome != engine.OutcomeBreakpoint {
			break
		}
		out.Hits = append(out.Hits, res.Hit.String())
		if text {
			fmt.Fprintf(cmd.OutOrStdout(), "breakpoint: %s\n", res.Hit)
		}
	}

	out.Outcome = res.Outcome.String()
	out.State = eng.State()
	out.Head = eng.Head()
	out.Tape = eng.TapeContents()

	if st != nil {
		err := st.FinishRun(context.WithoutCancel(ctx), eng.RunID(), store.RunSummary{
			Status: out.Outcome,
			State:  out.State,
			Head:   out.Head,
			Tape:   out.Tape,
			Steps:  eng.Steps(),
		})
		if err != nil {
			return WrapExitError(ExitFailure, "recording run failed", err)
		}
	}

	if !text {
		return formatter.Success(out)
	}

	w := cmd.OutOrStdout()
	if res.Outcome == engine.OutcomeInterrupted {
		fmt.Fprintln(w, "interrupted")
	} else {
		fmt.Fprintf(w, "machine stopped in state %d\n", eng.State())
	}
	fmt.Fprintln(w, eng.Show())
	formatter.VerboseLog("run %s: %d steps", eng.RunID(), eng.Steps())
	return nil
}

// detachedRecorder stores steps under a context that is never cancelled.
// An interrupted run still records the transition that was interrupted.
type detachedRecorder struct {
	st *store.Store
}

func (r detachedRecorder) RecordStep(ctx context.Context, rec engine.StepRecord) error {
	return r.st.RecordStep(context.WithoutCancel(ctx), rec)
}

// fanoutRecorder sends each step to every recorder and returns the first
// error.
func fanoutRecorder(recorders []engine.Recorder) engine.Recorder {
	return engine.RecorderFunc(func(ctx context.Context, rec engine.StepRecord) error {
		var first error
		for _, r := range recorders {
			if err := r.RecordStep(ctx, rec); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
