// Package breakpoint implements one-shot stop conditions for a running
// machine.
//
// A breakpoint watches one of four observables: the head position, the
// current state, the symbol under the head, or the symbol a rule is about
// to write. Each kind is its own namespace; a position breakpoint on 3 never
// matches state 3.
//
// Breakpoints fire once. CheckAndConsume deactivates the breakpoint it
// matched, and a fired breakpoint stays inactive until an identical one is
// added again.
package breakpoint

import (
	"fmt"
	"strings"

	"github.com/roach88/tmdbg/internal/ir"
)

// Kind selects the observable a breakpoint watches.
type Kind int

const (
	// Position matches the head position.
	Position Kind = iota + 1
	// State matches the current state.
	State
	// Read matches the symbol under the head.
	Read
	// Write matches the write symbol of a rule being examined.
	Write
)

var kindNames = map[Kind]string{
	Position: "pos",
	State:    "state",
	Read:     "read",
	Write:    "write",
}

// String returns the debugger keyword for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsSymbol reports whether the kind's value is a tape symbol.
func (k Kind) IsSymbol() bool {
	return k == Read || k == Write
}

// ParseKind converts a debugger keyword ("pos", "state", "read", "write").
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Breakpoint is a single trigger condition.
//
// Value is an integer for Position and State and the rune of the symbol
// for Read and Write.
type Breakpoint struct {
	Kind   Kind
	Value  int
	Active bool
}

// AtPosition returns an active breakpoint on head position pos.
func AtPosition(pos int) Breakpoint {
	return Breakpoint{Kind: Position, Value: pos, Active: true}
}

// AtState returns an active breakpoint on state.
func AtState(state int) Breakpoint {
	return Breakpoint{Kind: State, Value: state, Active: true}
}

// OnRead returns an active breakpoint on the symbol under the head.
func OnRead(sym ir.Symbol) Breakpoint {
	return Breakpoint{Kind: Read, Value: int(sym), Active: true}
}

// OnWrite returns an active breakpoint on a rule's write symbol.
func OnWrite(sym ir.Symbol) Breakpoint {
	return Breakpoint{Kind: Write, Value: int(sym), Active: true}
}

// String formats the breakpoint as "<kind> <value>".
func (b Breakpoint) String() string {
	if b.Kind.IsSymbol() {
		return fmt.Sprintf("%s %c", b.Kind, rune(b.Value))
	}
	return fmt.Sprintf("%s %d", b.Kind, b.Value)
}

// Set is an ordered collection of breakpoints. The zero value is empty and
// ready to use. Not safe for concurrent use.
type Set struct {
	bps []Breakpoint
}

// Add appends bp as an active breakpoint.
func (s *Set) Add(bp Breakpoint) {
	bp.Active = true
	s.bps = append(s.bps, bp)
}

// CheckAndConsume deactivates the first active breakpoint of kind with
// value and reports whether one was found. At most one breakpoint is
// consumed per call, so N identical breakpoints need N matching calls.
func (s *Set) CheckAndConsume(kind Kind, value int) bool {
	for i := range s.bps {
		bp := &s.bps[i]
		if bp.Active && bp.Kind == kind && bp.Value == value {
			bp.Active = false
			return true
		}
	}
	return false
}

// CheckAndConsumeSymbol is CheckAndConsume for Read and Write kinds.
func (s *Set) CheckAndConsumeSymbol(kind Kind, sym ir.Symbol) bool {
	return s.CheckAndConsume(kind, int(sym))
}

// Len returns the number of breakpoints, active or not.
func (s *Set) Len() int {
	return len(s.bps)
}

// ActiveCount returns the number of breakpoints that can still fire.
func (s *Set) ActiveCount() int {
	n := 0
	for _, bp := range s.bps {
		if bp.Active {
			n++
		}
	}
	return n
}

// List returns a snapshot of all breakpoints in insertion order.
func (s *Set) List() []Breakpoint {
	out := make([]Breakpoint, len(s.bps))
	copy(out, s.bps)
	return out
}

// String lists breakpoints one per line, marking fired ones.
func (s *Set) String() string {
	var b strings.Builder
	for i, bp := range s.bps {
		status := "active"
		if !bp.Active {
			status = "fired"
		}
		fmt.Fprintf(&b, "#%d %s (%s)\n", i+1, bp, status)
	}
	return b.String()
}
