package debugger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/roach88/tmdbg/internal/breakpoint"
	"github.com/roach88/tmdbg/internal/engine"
)

// Fixed output lines.
const (
	ByeMessage         = "Bye."
	InterruptedMessage = "interrupted"
	NoBreakpoints      = "no breakpoints"
)

// commandFunc runs one command. It reports true when the session should end.
type commandFunc func(ctx context.Context, args []string) bool

// InterruptFunc derives the context a continue command runs under.
type InterruptFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// Debugger drives an engine from command lines. Not safe for concurrent use.
type Debugger struct {
	eng       *engine.Engine
	in        LineReader
	out       io.Writer
	logger    *slog.Logger
	interrupt InterruptFunc
	commands  map[string]commandFunc
}

// Option configures a Debugger.
type Option func(*Debugger)

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Debugger) {
		d.logger = l
	}
}

// WithInterrupt replaces the SIGINT handling used by continue.
func WithInterrupt(f InterruptFunc) Option {
	return func(d *Debugger) {
		d.interrupt = f
	}
}

// New creates a debugger for eng reading from in and writing to out.
func New(eng *engine.Engine, in LineReader, out io.Writer, opts ...Option) *Debugger {
	d := &Debugger{
		eng:       eng,
		in:        in,
		out:       out,
		logger:    slog.Default(),
		interrupt: notifyInterrupt,
	}
	d.commands = map[string]commandFunc{
		"list":     d.cmdList,
		"step":     d.cmdStep,
		"show":     d.cmdShow,
		"continue": d.cmdContinue,
		"break":    d.cmdBreak,
		"breaks":   d.cmdBreaks,
		"quit":     d.cmdQuit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func notifyInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Engine returns the engine being debugged.
func (d *Debugger) Engine() *engine.Engine {
	return d.eng
}

// Run reads and executes commands until quit, end of input or halt.
// It returns an error only if reading input fails.
func (d *Debugger) Run(ctx context.Context) error {
	for {
		line, err := d.in.ReadLine()
		if errors.Is(err, io.EOF) {
			d.println(ByeMessage)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read command: %w", err)
		}

		if d.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether the session is
// over, either because of quit or because the machine halted.
func (d *Debugger) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) > 0 {
		cmd, ok := d.commands[fields[0]]
		if !ok {
			d.logger.Debug("ignoring unknown command", "command", fields[0])
		} else if cmd(ctx, fields[1:]) {
			return true
		}
	}

	if d.eng.Halted() {
		d.printf("machine stopped in state %d\n", d.eng.State())
		d.println(d.eng.Show())
		return true
	}
	return false
}

func (d *Debugger) cmdList(ctx context.Context, args []string) bool {
	fmt.Fprint(d.out, engine.FormatListing(d.eng.List()))
	return false
}

func (d *Debugger) cmdStep(ctx context.Context, args []string) bool {
	if res := d.eng.Step(ctx); res.Executed {
		d.println(res.Rule.String())
	}
	return false
}

func (d *Debugger) cmdShow(ctx context.Context, args []string) bool {
	d.println(d.eng.Show())
	return false
}

func (d *Debugger) cmdContinue(ctx context.Context, args []string) bool {
	runCtx, stop := d.interrupt(ctx)
	defer stop()

	res := d.eng.RunUntilBreakOrHalt(runCtx)
	switch res.Outcome {
	case engine.OutcomeBreakpoint:
		d.printf("breakpoint: %s\n", res.Hit)
	case engine.OutcomeInterrupted:
		d.println(InterruptedMessage)
	}
	return false
}

func (d *Debugger) cmdBreak(ctx context.Context, args []string) bool {
	if len(args) < 2 {
		return false
	}
	bp, ok := breakpoint.FromCommand(args[0], args[1])
	if !ok {
		d.logger.Debug("ignoring malformed breakpoint", "kind", args[0], "value", args[1])
		return false
	}
	d.eng.Breakpoints().Add(bp)
	return false
}

func (d *Debugger) cmdBreaks(ctx context.Context, args []string) bool {
	bps := d.eng.Breakpoints()
	if bps.Len() == 0 {
		d.println(NoBreakpoints)
		return false
	}
	fmt.Fprint(d.out, bps.String())
	return false
}

func (d *Debugger) cmdQuit(ctx context.Context, args []string) bool {
	d.println(ByeMessage)
	return true
}

func (d *Debugger) println(s string) {
	fmt.Fprintln(d.out, s)
}

func (d *Debugger) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}
