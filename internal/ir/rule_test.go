package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementDelta(t *testing.T) {
	tests := []struct {
		move Movement
		want int
	}{
		{MoveLeft, -1},
		{MoveRight, 1},
		{MoveStay, 0},
		{'N', 0},
		{'l', 0},
		{'*', 0},
	}
	for _, tt := range tests {
		t.Run(tt.move.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.move.Delta())
		})
	}
}

func TestRuleString(t *testing.T) {
	r := Rule{State: 0, Read: '1', Write: '0', Next: 1, Move: MoveRight}
	assert.Equal(t, "0 1 -> 0 1 R", r.String())

	r = Rule{State: -3, Read: '_', Write: 'x', Next: 12, Move: 'N'}
	assert.Equal(t, "-3 _ -> x 12 N", r.String())
}

func TestRuleMatches(t *testing.T) {
	r := Rule{State: 2, Read: 'a', Write: 'b', Next: 3, Move: MoveLeft}
	assert.True(t, r.Matches(2, 'a'))
	assert.False(t, r.Matches(2, 'b'))
	assert.False(t, r.Matches(3, 'a'))
	assert.Equal(t, RuleKey{State: 2, Read: 'a'}, r.Key())
}

func TestParseSymbol(t *testing.T) {
	s, err := ParseSymbol("x")
	require.NoError(t, err)
	assert.Equal(t, Symbol('x'), s)

	s, err = ParseSymbol("é")
	require.NoError(t, err)
	assert.Equal(t, Symbol('é'), s)

	_, err = ParseSymbol("")
	assert.Error(t, err)
	_, err = ParseSymbol("xy")
	assert.Error(t, err)
}

func TestParseSymbol_ReplacementCharacter(t *testing.T) {
	s, err := ParseSymbol("\uFFFD")
	require.NoError(t, err)
	assert.Equal(t, Symbol(0xFFFD), s)

	_, err = ParseSymbol("\xff")
	assert.Error(t, err, "invalid UTF-8 is not a symbol")
}
