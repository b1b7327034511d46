// Package tape implements the machine's working storage: an unbounded,
// signed-integer addressed sequence of symbols that reads as blank wherever
// nothing was written.
//
// Storage is a single slice that grows by doubling in whichever direction
// a write lands outside it. origin tracks the slice index of position 0, so
// negative positions are ordinary indexes rather than a special case.
package tape

import (
	"strings"

	"github.com/roach88/tmdbg/internal/ir"
)

// minGrow is the smallest capacity the backing slice grows to.
const minGrow = 16

// Tape is not safe for concurrent use.
type Tape struct {
	cells  []ir.Symbol
	origin int // index in cells of position 0

	// written extent, valid when written is true
	lo, hi  int
	written bool
}

// New returns a tape holding initial at positions 0..len-1.
func New(initial string) *Tape {
	t := &Tape{}
	pos := 0
	for _, r := range initial {
		t.Write(pos, ir.Symbol(r))
		pos++
	}
	return t
}

// Read returns the symbol at pos, or ir.Blank if pos was never written.
func (t *Tape) Read(pos int) ir.Symbol {
	i := pos + t.origin
	if i < 0 || i >= len(t.cells) {
		return ir.Blank
	}
	return t.cells[i]
}

// Write records sym at pos, growing storage as needed.
func (t *Tape) Write(pos int, sym ir.Symbol) {
	t.ensure(pos)
	t.cells[pos+t.origin] = sym

	if !t.written {
		t.lo, t.hi, t.written = pos, pos, true
		return
	}
	t.lo = min(t.lo, pos)
	t.hi = max(t.hi, pos)
}

// ensure grows cells so that pos is addressable.
func (t *Tape) ensure(pos int) {
	i := pos + t.origin
	if i >= 0 && i < len(t.cells) {
		return
	}

	if i >= len(t.cells) {
		size := max(len(t.cells)*2, i+1, minGrow)
		grown := make([]ir.Symbol, size)
		copy(grown, t.cells)
		fillBlank(grown[len(t.cells):])
		t.cells = grown
		return
	}

	// i < 0: grow to the left and shift existing cells right
	shift := max(len(t.cells), -i, minGrow)
	grown := make([]ir.Symbol, len(t.cells)+shift)
	fillBlank(grown[:shift])
	copy(grown[shift:], t.cells)
	t.cells = grown
	t.origin += shift
}

func fillBlank(cells []ir.Symbol) {
	for i := range cells {
		cells[i] = ir.Blank
	}
}

// IsEmpty reports whether every written cell holds blank. A tape whose
// symbols were all overwritten with blank is empty.
func (t *Tape) IsEmpty() bool {
	if !t.written {
		return true
	}
	for pos := t.lo; pos <= t.hi; pos++ {
		if t.Read(pos) != ir.Blank {
			return false
		}
	}
	return true
}

// Extent returns the lowest and highest written positions.
// ok is false if nothing was ever written.
func (t *Tape) Extent() (lo, hi int, ok bool) {
	return t.lo, t.hi, t.written
}

// Slice returns the symbols in [from, to] as a string.
func (t *Tape) Slice(from, to int) string {
	var b strings.Builder
	for pos := from; pos <= to; pos++ {
		b.WriteRune(rune(t.Read(pos)))
	}
	return b.String()
}

// String returns the written extent, or "" for a never-written tape.
func (t *Tape) String() string {
	if !t.written {
		return ""
	}
	return t.Slice(t.lo, t.hi)
}
