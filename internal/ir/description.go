package ir

// Description is a loaded machine: initial tape, head, start state and
// rules in source order. It is the output of every loader format.
type Description struct {
	// Tape is written at positions 0..len-1 before execution starts.
	Tape  string
	Head  int
	State int
	Rules []Rule

	// Source is the path the description was read from, if any.
	Source string
}

// toIR converts the description to an IRObject for canonical hashing.
// Source is excluded: the same machine loaded from two paths has one identity.
// Tape and symbols are encoded as code points, never as strings, so
// canonical string normalization cannot merge machines that execute
// differently.
func (d Description) toIR() IRObject {
	rules := make(IRArray, len(d.Rules))
	for i, r := range d.Rules {
		rules[i] = r.toIR()
	}
	return IRObject{
		"tape":  codePoints(d.Tape),
		"head":  IRInt(d.Head),
		"state": IRInt(d.State),
		"rules": rules,
	}
}

func codePoints(s string) IRArray {
	arr := IRArray{}
	for _, r := range s {
		arr = append(arr, IRInt(r))
	}
	return arr
}
