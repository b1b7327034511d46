package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tmdbg/internal/config"
	"github.com/roach88/tmdbg/internal/debugger"
	"github.com/roach88/tmdbg/internal/engine"
)

// InputFactory opens the line reader for an interactive session. out is
// the command's standard output.
type InputFactory func(prompt, historyFile string, out io.Writer) (debugger.LineReader, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Probe   string // "scan" | "step", empty keeps the configured mode
	Prompt  string
	History string

	// Env replaces the process environment for configuration when non-nil.
	Env map[string]string

	// NewInput opens the debugger's line reader. Defaults to readline on a
	// terminal and a prompting line reader for piped stdin.
	NewInput InputFactory

	// RunIDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator

	// Config and Logger are set before any command runs.
	Config config.Config
	Logger *slog.Logger

	closeLog func() error
}

// logger returns Logger, or slog.Default() before setup has run.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func readlineInput(prompt, historyFile string, out io.Writer) (debugger.LineReader, error) {
	return debugger.OpenStdin(prompt, historyFile, out)
}

// NewRootCommand creates the root command for the tmdbg CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{NewInput: readlineInput})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.NewInput == nil {
		opts.NewInput = readlineInput
	}

	cmd := &cobra.Command{
		Use:   "tmdbg <file>",
		Short: "Turing machine debugger",
		Long: `tmdbg loads a deterministic single-tape Turing machine and opens an
interactive debugger on it.

Descriptions ending in .cue are read as CUE; anything else uses the
line-oriented text format. A lone argument that names both a subcommand
and an existing file (for example a machine saved as "run") opens the
debugger on the file; "tmdbg debug <file>" is always unambiguous.

Debugger commands:
  list                       print the rule table, current rule marked
  step                       apply one transition
  show                       render the tape around the head
  continue                   run until a breakpoint fires or the machine halts
  break <kind> <value>       add a one-shot breakpoint (pos, state, read, write)
  breaks                     list breakpoints
  quit                       leave the debugger`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts, cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return NewExitError(ExitUsage, MsgUsage)
			}
			return runDebug(opts, args[0], cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Probe, "probe", "", "breakpoint probing (scan|step)")
	cmd.PersistentFlags().StringVar(&opts.Prompt, "prompt", "", "debugger prompt")
	cmd.PersistentFlags().StringVar(&opts.History, "history", "", "debugger history file")

	// Add subcommands
	cmd.AddCommand(NewDebugCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup validates global flags, loads configuration and installs the logger.
func setup(opts *RootOptions, cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, opts.Format) {
		return NewExitError(ExitUsage, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	cfg, err := loadConfig(opts.Env)
	if err != nil {
		return WrapExitError(ExitFailure, "invalid configuration", err)
	}
	if opts.Probe != "" {
		mode, err := engine.ParseProbeMode(opts.Probe)
		if err != nil {
			return WrapExitError(ExitUsage, fmt.Sprintf("invalid probe mode %q", opts.Probe), err)
		}
		cfg.ProbeMode = mode
	}
	if opts.Prompt != "" {
		cfg.Prompt = opts.Prompt
	}
	if opts.History != "" {
		cfg.HistoryFile = opts.History
	}
	opts.Config = cfg

	level := cfg.LogLevel
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, closeLog, err := newLogger(cmd.ErrOrStderr(), level, cfg.LogFile)
	if err != nil {
		return WrapExitError(ExitFailure, "opening log file failed", err)
	}
	opts.Logger = logger
	opts.closeLog = closeLog
	slog.SetDefault(logger)
	return nil
}

func loadConfig(env map[string]string) (config.Config, error) {
	if env != nil {
		return config.LoadFrom(env)
	}
	return config.Load()
}

// Execute runs the CLI with args and returns the process exit code.
// Diagnostics go to stdout as "[ERR] <message>".
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(&RootOptions{NewInput: readlineInput}, args, stdout, stderr)
}

// routeFileArgument sends "tmdbg <name>" to the debugger when name is
// both a subcommand and an existing file.
func routeFileArgument(root *cobra.Command, args []string) []string {
	if len(args) != 1 || !isSubcommand(root, args[0]) {
		return args
	}
	info, err := os.Stat(args[0])
	if err != nil || info.IsDir() {
		return args
	}
	return []string{"debug", "--", args[0]}
}

// isSubcommand reports whether name selects a subcommand, including the
// help and completion commands cobra adds on Execute.
func isSubcommand(root *cobra.Command, name string) bool {
	if name == "help" || name == "completion" {
		return true
	}
	sub, _, err := root.Find([]string{name})
	return err == nil && sub != root
}

func execute(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(routeFileArgument(cmd, args))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if opts.closeLog != nil {
		if closeErr := opts.closeLog(); closeErr != nil {
			fmt.Fprintf(stderr, "closing log file: %v\n", closeErr)
		}
	}
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(stdout, DiagnosticPrefix+err.Error())
		return ExitFailure
	}
	if !exitErr.Reported {
		fmt.Fprintln(stdout, DiagnosticPrefix+exitErr.Message)
	}
	if exitErr.Err != nil {
		opts.logger().Debug("command failed", "error", exitErr.Err)
	}
	return exitErr.Code
}
