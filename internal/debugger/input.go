package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader supplies command lines. ReadLine returns io.EOF once input
// is exhausted.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// OpenStdin returns a readline reader when stdin is a terminal. Piped
// input gets a StreamInput that still prints prompt to out, since
// readline stays silent without a terminal.
func OpenStdin(prompt, historyFile string, out io.Writer) (LineReader, error) {
	if !readline.DefaultIsTerminal() {
		return NewStreamInput(os.Stdin, out, prompt), nil
	}
	return NewReadlineInput(prompt, historyFile)
}

// ReadlineInput reads commands from the terminal with line editing and
// history.
type ReadlineInput struct {
	rl *readline.Instance
}

// NewReadlineInput creates a terminal reader showing prompt. An empty
// historyFile disables persistent history.
func NewReadlineInput(prompt, historyFile string) (*ReadlineInput, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return nil, fmt.Errorf("init readline: %w", err)
	}
	return &ReadlineInput{rl: rl}, nil
}

// ReadLine returns the next line. Ctrl-C at the prompt discards the line
// and yields an empty command; Ctrl-D yields io.EOF.
func (r *ReadlineInput) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	return line, err
}

// Close restores the terminal.
func (r *ReadlineInput) Close() error {
	return r.rl.Close()
}

// StreamInput reads commands line by line from a non-interactive reader,
// writing prompt to out before each read. Lines are not echoed.
type StreamInput struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// NewStreamInput creates a reader over r.
func NewStreamInput(r io.Reader, out io.Writer, prompt string) *StreamInput {
	return &StreamInput{scanner: bufio.NewScanner(r), out: out, prompt: prompt}
}

// ReadLine returns the next line without its terminator, then io.EOF.
func (s *StreamInput) ReadLine() (string, error) {
	fmt.Fprint(s.out, s.prompt)
	if s.scanner.Scan() {
		return strings.TrimRight(s.scanner.Text(), "\r"), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close is a no-op. The underlying reader belongs to the caller.
func (s *StreamInput) Close() error {
	return nil
}

// ScriptInput replays a fixed list of command lines. When echo is set each
// prompt and line is written to it, so the output reads like a terminal
// session.
type ScriptInput struct {
	lines  []string
	next   int
	echo   io.Writer
	prompt string
}

// NewScriptInput creates a reader over lines.
func NewScriptInput(lines []string, echo io.Writer, prompt string) *ScriptInput {
	return &ScriptInput{lines: lines, echo: echo, prompt: prompt}
}

// ReadLine returns the next scripted line, then io.EOF.
func (s *ScriptInput) ReadLine() (string, error) {
	if s.echo != nil {
		fmt.Fprint(s.echo, s.prompt)
	}
	if s.next >= len(s.lines) {
		if s.echo != nil {
			fmt.Fprintln(s.echo)
		}
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	if s.echo != nil {
		fmt.Fprintln(s.echo, line)
	}
	return line, nil
}

// Remaining returns the lines not read yet.
func (s *ScriptInput) Remaining() []string {
	return s.lines[s.next:]
}

// Close is a no-op.
func (s *ScriptInput) Close() error {
	return nil
}
