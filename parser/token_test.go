package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_AtomBoundaries(t *testing.T) {
	tests := []struct {
		input  string
		symbol string
		count  int64
		width  int
	}{
		{"Fe2", "Fe", 2, 3},
		{"O2", "O", 2, 2},
		{"H", "H", 1, 1},
		{"HO", "H", 1, 1},
		{"Mg12(", "Mg", 12, 4},
		{"C0", "C", 0, 2},
		{"Abc", "Ab", 1, 2},
	}

	for _, tt := range tests {
		tok := Next(tt.input, 0)
		assert.Equal(t, TokenAtom, tok.Kind, tt.input)
		assert.Equal(t, tt.symbol, tok.Symbol, tt.input)
		assert.Equal(t, tt.count, tok.Count, tt.input)
		assert.Equal(t, tt.width, tok.Width, tt.input)
		assert.False(t, tok.Overflow, tt.input)
	}
}

func TestNext_Brackets(t *testing.T) {
	open := Next("(H)", 0)
	assert.Equal(t, TokenOpen, open.Kind)
	assert.Equal(t, "(", open.Symbol)
	assert.Equal(t, 1, open.Width)

	closing := Next("(H)23", 2)
	assert.Equal(t, TokenClose, closing.Kind)
	assert.Equal(t, ")", closing.Symbol)
	assert.EqualValues(t, 23, closing.Count)
	assert.Equal(t, 3, closing.Width)

	bare := Next("]", 0)
	assert.Equal(t, TokenClose, bare.Kind)
	assert.EqualValues(t, 1, bare.Count)
}

func TestNext_NoMatch(t *testing.T) {
	for _, input := range []string{"h", "2", "+", " ", "é", ""} {
		tok := Next(input, 0)
		assert.Equal(t, TokenNone, tok.Kind, "%q", input)
		assert.Equal(t, "none", tok.Kind.String())
	}
}

func TestNext_Overflow(t *testing.T) {
	tok := Next("H99999999999999999999", 0)
	assert.Equal(t, TokenAtom, tok.Kind)
	assert.True(t, tok.Overflow)
	assert.Equal(t, 21, tok.Width)
}

func TestTokenize(t *testing.T) {
	tokens, end := Tokenize("K4[ON(SO3)2]2")
	require.Equal(t, len("K4[ON(SO3)2]2"), end)

	var kinds []string
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind.String()+":"+tok.Symbol)
	}
	assert.Equal(t, []string{
		"atom:K", "open:[", "atom:O", "atom:N", "open:(", "atom:S", "atom:O", "close:)", "close:]",
	}, kinds)

	_, end = Tokenize("H2O+Na")
	assert.Equal(t, 3, end)
}
