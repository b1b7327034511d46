package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/tmdbg/internal/ir"
)

// MaxLineLength bounds a single line of a text description. Longer lines
// are reported as OutOfMemory.
var MaxLineLength = 64 << 20

// ruleFields is the number of whitespace-separated fields in a rule line.
const ruleFields = 5

// ParseText reads a text-format description from r. name is used in
// error messages and recorded as the description's Source.
func ParseText(r io.Reader, name string) (ir.Description, error) {
	p := &textParser{
		scanner: bufio.NewScanner(r),
		name:    name,
	}
	p.scanner.Buffer(make([]byte, 0, min(4096, MaxLineLength)), MaxLineLength)
	return p.parse()
}

type textParser struct {
	scanner *bufio.Scanner
	name    string
	line    int
}

func (p *textParser) parse() (ir.Description, error) {
	desc := ir.Description{Source: p.name}

	tape, ok, err := p.firstNonBlank()
	if err != nil {
		return desc, err
	}
	if !ok {
		return desc, p.fail(errors.New("empty description"))
	}
	desc.Tape = strings.Fields(tape)[0]

	if desc.Head, err = p.intLine("head position"); err != nil {
		return desc, err
	}
	if desc.State, err = p.intLine("start state"); err != nil {
		return desc, err
	}

	for {
		line, ok, err := p.next()
		if err != nil {
			return desc, err
		}
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		r, err := parseRule(line)
		if err != nil {
			return desc, p.fail(err)
		}
		desc.Rules = append(desc.Rules, r)
	}
	return desc, nil
}

// next returns the next line, false at EOF.
func (p *textParser) next() (string, bool, error) {
	if p.scanner.Scan() {
		p.line++
		return p.scanner.Text(), true, nil
	}
	if err := p.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", false, &LoadError{Kind: OutOfMemory, Path: p.name, Line: p.line + 1, Err: err}
		}
		return "", false, &LoadError{Kind: FileRead, Path: p.name, Err: err}
	}
	return "", false, nil
}

func (p *textParser) firstNonBlank() (string, bool, error) {
	for {
		line, ok, err := p.next()
		if err != nil || !ok {
			return "", false, err
		}
		if strings.TrimSpace(line) != "" {
			return line, true, nil
		}
	}
}

// intLine parses an optional sign followed by digits. A missing or empty
// line yields 0.
func (p *textParser) intLine(what string) (int, error) {
	line, ok, err := p.next()
	if err != nil || !ok {
		return 0, err
	}
	n, err := parseSignedInt(strings.TrimRight(line, "\r"))
	if err != nil {
		return 0, p.fail(fmt.Errorf("%s: %w", what, err))
	}
	return n, nil
}

func (p *textParser) fail(err error) error {
	return &LoadError{Kind: Parse, Path: p.name, Line: p.line, Err: err}
}

func parseSignedInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	digits := s
	if digits[0] == '+' || digits[0] == '-' {
		digits = digits[1:]
	}
	if digits == "" {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid number %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return n, nil
}

func parseRule(line string) (ir.Rule, error) {
	fields := strings.Fields(line)
	if len(fields) != ruleFields {
		return ir.Rule{}, fmt.Errorf("rule needs %d fields, got %d", ruleFields, len(fields))
	}

	state, err := strconv.Atoi(fields[0])
	if err != nil {
		return ir.Rule{}, fmt.Errorf("rule state %q is not an integer", fields[0])
	}
	read, err := ir.ParseSymbol(fields[1])
	if err != nil {
		return ir.Rule{}, fmt.Errorf("read %w", err)
	}
	write, err := ir.ParseSymbol(fields[2])
	if err != nil {
		return ir.Rule{}, fmt.Errorf("write %w", err)
	}
	next, err := strconv.Atoi(fields[3])
	if err != nil {
		return ir.Rule{}, fmt.Errorf("next state %q is not an integer", fields[3])
	}
	move, err := ir.ParseSymbol(fields[4])
	if err != nil {
		return ir.Rule{}, fmt.Errorf("movement %w", err)
	}

	return ir.Rule{
		State: state,
		Read:  read,
		Write: write,
		Next:  next,
		Move:  ir.Movement(move),
	}, nil
}

// FormatText renders desc in the text format accepted by ParseText.
// An empty tape is written as a single blank so the first line is never
// empty.
func FormatText(desc ir.Description) string {
	var b strings.Builder
	tape := desc.Tape
	if tape == "" {
		tape = ir.Blank.String()
	}
	fmt.Fprintf(&b, "%s\n%d\n%d\n", tape, desc.Head, desc.State)
	for _, r := range desc.Rules {
		fmt.Fprintf(&b, "%d %c %c %d %c\n", r.State, r.Read, r.Write, r.Next, r.Move)
	}
	return b.String()
}
