package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmdbg/internal/ir"
)

func TestParseCUE_Valid(t *testing.T) {
	src := `
machine: {
	tape:  "1010"
	head:  1
	state: 2
	rules: [
		{state: 2, read: "0", write: "1", next: 2, move: "R"},
		{state: 2, read: "1", write: "0", next: 3, move: "L"},
	]
}
`
	desc, err := ParseCUE([]byte(src), "flip.cue")
	require.NoError(t, err)

	assert.Equal(t, "1010", desc.Tape)
	assert.Equal(t, 1, desc.Head)
	assert.Equal(t, 2, desc.State)
	assert.Equal(t, "flip.cue", desc.Source)
	assert.Equal(t, []ir.Rule{
		{State: 2, Read: '0', Write: '1', Next: 2, Move: 'R'},
		{State: 2, Read: '1', Write: '0', Next: 3, Move: 'L'},
	}, desc.Rules)
}

func TestParseCUE_Defaults(t *testing.T) {
	desc, err := ParseCUE([]byte(`machine: {}`), "empty.cue")
	require.NoError(t, err)

	assert.Equal(t, "", desc.Tape)
	assert.Equal(t, 0, desc.Head)
	assert.Equal(t, 0, desc.State)
	assert.Empty(t, desc.Rules)
}

func TestParseCUE_UsesCUEExpressions(t *testing.T) {
	src := `
_blank: "_"
machine: {
	tape: "1" + "1"
	rules: [for s in [0, 1] {state: s, read: _blank, write: "x", next: s + 1, move: "S"}]
}
`
	desc, err := ParseCUE([]byte(src), "gen.cue")
	require.NoError(t, err)

	assert.Equal(t, "11", desc.Tape)
	require.Len(t, desc.Rules, 2)
	assert.Equal(t, ir.Rule{State: 1, Read: ir.Blank, Write: 'x', Next: 2, Move: 'S'}, desc.Rules[1])
}

func TestParseCUE_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `machine: {`},
		{"missing machine", `other: 1`},
		{"symbol too long", `machine: rules: [{state: 0, read: "ab", write: "1", next: 0, move: "R"}]`},
		{"empty symbol", `machine: rules: [{state: 0, read: "", write: "1", next: 0, move: "R"}]`},
		{"missing rule field", `machine: rules: [{state: 0, read: "a", write: "1", next: 0}]`},
		{"state not int", `machine: state: "zero"`},
		{"unknown field", `machine: speed: 3`},
		{"head not int", `machine: head: 1.5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.src), "bad.cue")
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, Parse, kind)
		})
	}
}

func TestParseCUE_MatchesTextFormat(t *testing.T) {
	cueDesc, err := ParseCUE([]byte(`
machine: {
	tape: "10"
	rules: [{state: 0, read: "1", write: "0", next: 0, move: "R"}]
}`), "a.cue")
	require.NoError(t, err)

	textDesc, err := ParseText(stringsReader("10\n0\n0\n0 1 0 0 R\n"), "a.tm")
	require.NoError(t, err)

	assert.Equal(t, ir.MustMachineHash(textDesc), ir.MustMachineHash(cueDesc))
}
