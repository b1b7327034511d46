package ir

import (
	"fmt"
	"unicode/utf8"
)

// Symbol is a single tape character.
type Symbol rune

// Blank is the symbol read from every cell that was never written.
const Blank Symbol = '_'

// String returns the symbol as a one-character string.
func (s Symbol) String() string {
	return string(rune(s))
}

// ParseSymbol converts a one-character string into a Symbol.
func ParseSymbol(s string) (Symbol, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || (r == utf8.RuneError && size == 1) || size != len(s) {
		return 0, fmt.Errorf("symbol must be exactly one character, got %q", s)
	}
	return Symbol(r), nil
}

// Movement is the head movement character of a rule.
//
// Only MoveLeft and MoveRight move the head. Every other character is a
// valid movement that leaves the head where it is.
type Movement rune

const (
	MoveLeft  Movement = 'L'
	MoveRight Movement = 'R'
	// MoveStay is the conventional stay marker; any other character behaves the same.
	MoveStay Movement = 'S'
)

// Delta returns the head offset applied by the movement.
func (m Movement) Delta() int {
	switch m {
	case MoveLeft:
		return -1
	case MoveRight:
		return 1
	default:
		return 0
	}
}

// String returns the raw movement character.
func (m Movement) String() string {
	return string(rune(m))
}
