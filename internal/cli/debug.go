package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tmdbg/internal/debugger"
	"github.com/roach88/tmdbg/internal/engine"
	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/loader"
)

// NewDebugCommand creates the debug command. The root command runs the
// same session when given a file directly.
func NewDebugCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Open the interactive debugger",
		Long: `Load a machine description and open the interactive debugger.

The session ends on quit, end of input, or when the machine halts. Ctrl-C
during continue stops the run and returns to the prompt.

Exit codes:
  0 - Session ended normally
  2 - Out of memory while reading the description
  3 - Description could not be parsed
  4 - Description could not be read
  5 - Rule table is non-deterministic

Example:
  tmdbg debug ./machines/flip.tm
  tmdbg ./machines/flip.tm --probe step`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return NewExitError(ExitUsage, MsgUsage)
			}
			return runDebug(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDebug(opts *RootOptions, path string, cmd *cobra.Command) error {
	desc, eng, err := loadEngine(opts, path)
	if err != nil {
		return err
	}
	opts.logger().Debug("machine loaded",
		"source", desc.Source,
		"rules", len(desc.Rules),
		"probe", eng.ProbeMode())

	in, err := opts.NewInput(opts.Config.Prompt, opts.Config.HistoryFile, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitFailure, "opening terminal failed", err)
	}
	defer in.Close()

	dbg := debugger.New(eng, in, cmd.OutOrStdout(), debugger.WithLogger(opts.logger()))
	if err := dbg.Run(cmd.Context()); err != nil {
		return WrapExitError(ExitFailure, "reading commands failed", err)
	}
	return nil
}

// loadEngine reads path and builds an engine configured from opts.
func loadEngine(opts *RootOptions, path string, engineOpts ...engine.EngineOption) (ir.Description, *engine.Engine, error) {
	desc, err := loader.Load(path)
	if err != nil {
		return ir.Description{}, nil, MachineError(err)
	}

	engineOpts = append([]engine.EngineOption{
		engine.WithProbeMode(opts.Config.ProbeMode),
		engine.WithLogger(opts.logger()),
	}, engineOpts...)
	eng, err := engine.Load(desc, engineOpts...)
	if err != nil {
		return ir.Description{}, nil, MachineError(err)
	}
	return desc, eng, nil
}
