package rules

import "github.com/roach88/tmdbg/internal/ir"

// Table is an immutable, validated sequence of rules.
type Table struct {
	rules []ir.Rule
}

// Load validates rules and returns a Table owning a copy of them.
//
// Every unordered pair of rules is compared; the first collision in load
// order is returned as a *NonDeterminismError.
func Load(rules []ir.Rule) (*Table, error) {
	if err := CheckDeterministic(rules); err != nil {
		return nil, err
	}

	owned := make([]ir.Rule, len(rules))
	copy(owned, rules)
	return &Table{rules: owned}, nil
}

// CheckDeterministic compares all unordered pairs of rules.
func CheckDeterministic(rules []ir.Rule) error {
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if rules[i].Key() == rules[j].Key() {
				return &NonDeterminismError{Key: rules[i].Key(), First: i, Second: j}
			}
		}
	}
	return nil
}

// Find returns the first rule matching (state, sym) in load order.
func (t *Table) Find(state int, sym ir.Symbol) (ir.Rule, bool) {
	i := t.IndexOf(state, sym)
	if i < 0 {
		return ir.Rule{}, false
	}
	return t.rules[i], true
}

// IndexOf returns the load-order index of the rule matching (state, sym),
// or -1.
func (t *Table) IndexOf(state int, sym ir.Symbol) int {
	for i, r := range t.rules {
		if r.Matches(state, sym) {
			return i
		}
	}
	return -1
}

// At returns the rule at load-order index i.
func (t *Table) At(i int) ir.Rule {
	return t.rules[i]
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// All returns a copy of the rules in load order.
func (t *Table) All() []ir.Rule {
	out := make([]ir.Rule, len(t.rules))
	copy(out, t.rules)
	return out
}
