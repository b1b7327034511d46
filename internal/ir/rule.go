package ir

import "fmt"

// Rule is a single transition: in State reading Read, write Write,
// switch to Next and move the head by Move.
type Rule struct {
	State int      `json:"state"`
	Read  Symbol   `json:"read"`
	Write Symbol   `json:"write"`
	Next  int      `json:"next"`
	Move  Movement `json:"move"`
}

// RuleKey is the (state, read symbol) pair that selects a rule.
type RuleKey struct {
	State int
	Read  Symbol
}

// Key returns the selector of the rule.
func (r Rule) Key() RuleKey {
	return RuleKey{State: r.State, Read: r.Read}
}

// Matches reports whether the rule applies in state reading sym.
func (r Rule) Matches(state int, sym Symbol) bool {
	return r.State == state && r.Read == sym
}

// String formats the rule as "state read -> write next move".
func (r Rule) String() string {
	return fmt.Sprintf("%d %c -> %c %d %c", r.State, rune(r.Read), rune(r.Write), r.Next, rune(r.Move))
}

// String formats the key as "(state, symbol)".
func (k RuleKey) String() string {
	return fmt.Sprintf("(%d, %c)", k.State, rune(k.Read))
}

// toIR encodes the rule for canonical hashing. Symbols and the movement
// are stored as code points.
func (r Rule) toIR() IRObject {
	return IRObject{
		"state": IRInt(r.State),
		"read":  IRInt(r.Read),
		"write": IRInt(r.Write),
		"next":  IRInt(r.Next),
		"move":  IRInt(r.Move),
	}
}
