package breakpoint

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/tmdbg/internal/ir"
)

// FromCommand builds a breakpoint from the arguments of the debugger's
// "break" command. For pos and state the first character of value must be
// a decimal digit and becomes the value; for read and write the first
// character is the symbol. Anything else reports false.
func FromCommand(kind, value string) (Breakpoint, bool) {
	k, ok := ParseKind(kind)
	if !ok || value == "" {
		return Breakpoint{}, false
	}

	if k.IsSymbol() {
		r, _ := utf8.DecodeRuneInString(value)
		return Breakpoint{Kind: k, Value: int(r), Active: true}, true
	}

	c := value[0]
	if c < '0' || c > '9' {
		return Breakpoint{}, false
	}
	return Breakpoint{Kind: k, Value: int(c - '0'), Active: true}, true
}

// ParseSpec parses "kind=value" as accepted by the --break flag. Unlike
// FromCommand, pos and state take a full signed integer and symbols must be
// exactly one character.
func ParseSpec(spec string) (Breakpoint, error) {
	kind, value, ok := strings.Cut(spec, "=")
	if !ok {
		return Breakpoint{}, fmt.Errorf("breakpoint %q: expected kind=value", spec)
	}

	k, ok := ParseKind(kind)
	if !ok {
		return Breakpoint{}, fmt.Errorf("breakpoint %q: unknown kind %q (want pos, state, read or write)", spec, kind)
	}

	if k.IsSymbol() {
		sym, err := ir.ParseSymbol(value)
		if err != nil {
			return Breakpoint{}, fmt.Errorf("breakpoint %q: %w", spec, err)
		}
		return Breakpoint{Kind: k, Value: int(sym), Active: true}, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return Breakpoint{}, fmt.Errorf("breakpoint %q: %s value must be an integer", spec, k)
	}
	return Breakpoint{Kind: k, Value: n, Active: true}, nil
}
