package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Machine  string // optional - filter runs by machine fingerprint
	Verify   bool   // re-execute the run's machine against its record
}

// TraceStep is one recorded transition.
type TraceStep struct {
	Seq        int64  `json:"seq"`
	RuleIndex  int    `json:"rule_index"`
	Rule       string `json:"rule"`
	RuleHash   string `json:"rule_hash"`
	HeadBefore int    `json:"head_before"`
	HeadAfter  int    `json:"head_after"`
}

// TraceResult holds one run and its transitions.
type TraceResult struct {
	Run   store.Run   `json:"run"`
	Steps []TraceStep `json:"steps"`

	// Verified is set when --verify replayed the run successfully.
	Verified bool `json:"verified,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded by "tmdbg run --db".

Without --run, lists every recorded run in creation order. With --run,
prints that run's transitions in the order they were applied.

--verify reloads the run's machine from its recorded source, checks that
its fingerprint is unchanged and re-executes it, comparing every
transition and the final state with the record.

Examples:
  tmdbg trace --db ./trace.db
  tmdbg trace --db ./trace.db --machine <fingerprint>
  tmdbg trace --db ./trace.db --run 0190f1a2-... --format json
  tmdbg trace --db ./trace.db --run 0190f1a2-... --verify`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite trace database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to print")
	cmd.Flags().StringVar(&opts.Machine, "machine", "", "only list runs of this machine fingerprint")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "replay the run and compare it with the record (requires --run)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Verify && opts.RunID == "" {
		return NewExitError(ExitUsage, "--verify requires --run")
	}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.TraceDB
	}
	if dbPath == "" {
		return NewExitError(ExitUsage, "trace store not set: use --db or TMDBG_TRACE_DB")
	}
	if _, err := os.Stat(dbPath); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("trace store not found: %s", dbPath), err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitFailure, "opening trace store failed", err)
	}
	defer st.Close()

	if opts.RunID == "" {
		runs, err := st.ListRuns(ctx, opts.Machine)
		if err != nil {
			return WrapExitError(ExitFailure, "listing runs failed", err)
		}
		formatter.VerboseLog("%d run(s) in %s", len(runs), dbPath)
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		return outputRunsText(cmd, runs)
	}

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return WrapExitError(ExitFailure, fmt.Sprintf("run not found: %s", opts.RunID), err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "reading run failed", err)
	}
	recs, err := st.ReadSteps(ctx, opts.RunID)
	if err != nil {
		return WrapExitError(ExitFailure, "reading steps failed", err)
	}

	result := TraceResult{Run: run, Steps: make([]TraceStep, len(recs))}
	for i, rec := range recs {
		ruleHash, err := ir.RuleHash(rec.Rule)
		if err != nil {
			return WrapExitError(ExitFailure, "fingerprinting rule failed", err)
		}
		result.Steps[i] = TraceStep{
			Seq:        rec.Seq,
			RuleIndex:  rec.RuleIndex,
			Rule:       rec.Rule.String(),
			RuleHash:   ruleHash,
			HeadBefore: rec.HeadBefore,
			HeadAfter:  rec.HeadAfter,
		}
	}

	if opts.Verify {
		if err := verifyRun(cmd, opts.logger(), run, recs); err != nil {
			return err
		}
		result.Verified = true
		formatter.VerboseLog("run %s replayed %d step(s)", run.ID, len(recs))
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if err := outputTraceText(cmd, result); err != nil {
		return err
	}
	if result.Verified {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ replay matches %d step(s)\n", len(recs))
	}
	return nil
}

// verifyRun reloads the run's machine and replays the recorded steps.
func verifyRun(cmd *cobra.Command, logger *slog.Logger, run store.Run, recs []engine.StepRecord) error {
	desc, err := loader.Load(run.Source)
	if err != nil {
		return MachineError(err)
	}
	hash, err := ir.MachineHash(desc)
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprinting machine failed", err)
	}
	if hash != run.MachineHash {
		return NewExitError(ExitFailure, fmt.Sprintf("machine changed since run was recorded: %s", run.Source))
	}

	eng, err := engine.Replay(cmd.Context(), desc, recs,
		engine.WithRunIDGenerator(engine.NewFixedGenerator(run.ID)),
		engine.WithLogger(logger),
	)
	if err != nil {
		return replayFailure(err)
	}

	if run.Status == engine.Halted.String() && !eng.Step(cmd.Context()).Halted {
		return NewExitError(ExitFailure, "replay diverged: recorded run halted but the machine continues")
	}
	if run.Status != store.StatusRunning &&
		(eng.State() != run.FinalState || eng.Head() != run.FinalHead || eng.TapeContents() != run.FinalTape) {
		return NewExitError(ExitFailure, fmt.Sprintf("replay diverged: final state %d head %d tape %q, recorded state %d head %d tape %q",
			eng.State(), eng.Head(), eng.TapeContents(), run.FinalState, run.FinalHead, run.FinalTape))
	}
	return nil
}

// replayFailure distinguishes a diverging replay from one that stopped
// early.
func replayFailure(err error) *ExitError {
	if engine.IsReplayMismatch(err) {
		return WrapExitError(ExitFailure, "replay diverged", err)
	}
	return WrapExitError(ExitFailure, "replay interrupted", err)
}

func outputRunsText(cmd *cobra.Command, runs []store.Run) error {
	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-11s  steps=%d  state=%d  %s\n", r.ID, r.Status, r.Steps, r.FinalState, r.Source)
	}
	return nil
}

func outputTraceText(cmd *cobra.Command, result TraceResult) error {
	w := cmd.OutOrStdout()
	r := result.Run

	fmt.Fprintf(w, "Run: %s\n", r.ID)
	fmt.Fprintf(w, "Machine: %s\n", r.MachineHash)
	if r.Source != "" {
		fmt.Fprintf(w, "Source: %s\n", r.Source)
	}
	fmt.Fprintf(w, "Start: state %d, head %d\n", r.StartState, r.StartHead)
	fmt.Fprintf(w, "Status: %s\n", r.Status)
	fmt.Fprintln(w)

	for _, s := range result.Steps {
		fmt.Fprintf(w, "[%d] #%d %s  (head %d -> %d)\n", s.Seq, s.RuleIndex, s.Rule, s.HeadBefore, s.HeadAfter)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Final: state %d, head %d, tape %q, %d step(s)\n", r.FinalState, r.FinalHead, r.FinalTape, r.Steps)
	return nil
}
