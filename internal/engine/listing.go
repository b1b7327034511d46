package engine

import (
	"strings"

	"github.com/roach88/tmdbg/internal/ir"
)

// CurrentMarker prefixes the listing entry of the rule that applies next.
const CurrentMarker = ">>> "

// ListEntry is one line of a rule listing.
type ListEntry struct {
	Index   int
	Rule    ir.Rule
	Current bool
}

// String formats the entry, prefixing CurrentMarker when Current.
func (le ListEntry) String() string {
	if le.Current {
		return CurrentMarker + le.Rule.String()
	}
	return le.Rule.String()
}

// List returns every rule exactly once, starting with the rule that applies
// to the current (state, symbol under head) and wrapping around the table.
// If no rule applies the listing starts at index 0 and nothing is marked.
func (e *Engine) List() []ListEntry {
	n := e.rules.Len()
	start := e.rules.IndexOf(e.state, e.tape.Read(e.head))
	marked := start >= 0
	if !marked {
		start = 0
	}

	entries := make([]ListEntry, 0, n)
	for k := 0; k < n; k++ {
		i := (start + k) % n
		entries = append(entries, ListEntry{
			Index:   i,
			Rule:    e.rules.At(i),
			Current: marked && k == 0,
		})
	}
	return entries
}

// FormatListing renders entries one per line.
func FormatListing(entries []ListEntry) string {
	var b strings.Builder
	for _, le := range entries {
		b.WriteString(le.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Show renders the tape as cells separated by "|" with the head cell
// written as ">x<".
//
// The window spans from min(0, lowest written, head) to
// max(highest written, head). An empty tape renders as ">_<".
func (e *Engine) Show() string {
	if e.tape.IsEmpty() {
		return ">" + ir.Blank.String() + "<"
	}

	lo, hi, _ := e.tape.Extent()
	from := min(0, lo, e.head)
	to := max(hi, e.head)

	var b strings.Builder
	for pos := from; pos <= to; pos++ {
		if pos > from {
			b.WriteByte('|')
		}
		sym := e.tape.Read(pos)
		if pos == e.head {
			b.WriteByte('>')
			b.WriteRune(rune(sym))
			b.WriteByte('<')
			continue
		}
		b.WriteRune(rune(sym))
	}
	return b.String()
}
