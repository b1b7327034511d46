package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tmdbg/internal/ir"
	"github.com/roach88/tmdbg/internal/loader"
	"github.com/roach88/tmdbg/internal/rules"
)

// ValidationResult describes a loadable machine.
type ValidationResult struct {
	Source      string `json:"source"`
	Rules       int    `json:"rules"`
	State       int    `json:"state"`
	Head        int    `json:"head"`
	Fingerprint string `json:"fingerprint"`
}

// String renders the text output of validate.
func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %s\n  rules: %d\n  start: state %d, head %d\n  fingerprint: %s",
		r.Source, r.Rules, r.State, r.Head, r.Fingerprint)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a machine description without running it",
		Long: `Load a machine description and check that its rule table is
deterministic. Prints the rule count and the machine fingerprint used to
group runs in the trace store.

Exit codes are those of the debugger: 3 for parse errors, 4 for unreadable
files, 5 for non-deterministic tables.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	desc, err := loader.Load(path)
	if err == nil {
		formatter.VerboseLog("Loaded %d rule(s) from %s", len(desc.Rules), path)
		err = rules.CheckDeterministic(desc.Rules)
	}
	if err != nil {
		exitErr := MachineError(err)
		if ferr := formatter.Error(exitErr); ferr != nil {
			return ferr
		}
		return exitErr
	}

	hash, err := ir.MachineHash(desc)
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprinting machine failed", err)
	}

	return formatter.Success(ValidationResult{
		Source:      desc.Source,
		Rules:       len(desc.Rules),
		State:       desc.State,
		Head:        desc.Head,
		Fingerprint: hash,
	})
}
