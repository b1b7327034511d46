package loader

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/tmdbg/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// cueMachine mirrors #Machine in schema.cue.
type cueMachine struct {
	Tape  string    `json:"tape"`
	Head  int       `json:"head"`
	State int       `json:"state"`
	Rules []cueRule `json:"rules"`
}

type cueRule struct {
	State int    `json:"state"`
	Read  string `json:"read"`
	Write string `json:"write"`
	Next  int    `json:"next"`
	Move  string `json:"move"`
}

// ParseCUE compiles src, unifies it with the machine schema and decodes
// the "machine" field. name is used for CUE positions and as Source.
//
// Example:
//
//	machine: {
//		tape: "1010"
//		rules: [{state: 0, read: "1", write: "0", next: 0, move: "R"}]
//	}
func ParseCUE(src []byte, name string) (ir.Description, error) {
	desc := ir.Description{Source: name}
	fail := func(err error) (ir.Description, error) {
		return desc, &LoadError{Kind: Parse, Path: name, Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; failing here is a programming error.
		panic(fmt.Sprintf("loader: invalid embedded schema: %v", err))
	}

	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return fail(formatCUEError(err))
	}
	if !v.LookupPath(cue.ParsePath("machine")).Exists() {
		return fail(&FieldError{Field: "machine", Message: "machine is required", Pos: v.Pos()})
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fail(formatCUEError(err))
	}

	var m cueMachine
	if err := unified.LookupPath(cue.ParsePath("machine")).Decode(&m); err != nil {
		return fail(formatCUEError(err))
	}

	desc.Tape = m.Tape
	desc.Head = m.Head
	desc.State = m.State
	desc.Rules = make([]ir.Rule, 0, len(m.Rules))
	for i, cr := range m.Rules {
		r, err := cr.toRule()
		if err != nil {
			return fail(&FieldError{Field: fmt.Sprintf("machine.rules[%d]", i), Message: err.Error()})
		}
		desc.Rules = append(desc.Rules, r)
	}
	return desc, nil
}

func (cr cueRule) toRule() (ir.Rule, error) {
	read, err := ir.ParseSymbol(cr.Read)
	if err != nil {
		return ir.Rule{}, fmt.Errorf("read: %w", err)
	}
	write, err := ir.ParseSymbol(cr.Write)
	if err != nil {
		return ir.Rule{}, fmt.Errorf("write: %w", err)
	}
	move, err := ir.ParseSymbol(cr.Move)
	if err != nil {
		return ir.Rule{}, fmt.Errorf("move: %w", err)
	}
	return ir.Rule{State: cr.State, Read: read, Write: write, Next: cr.Next, Move: ir.Movement(move)}, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &FieldError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return first
}
