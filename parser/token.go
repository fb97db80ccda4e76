package parser

import (
	"math"

	mp "github.com/chemform/molparse"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	// TokenNone means nothing matched at the position.
	TokenNone TokenKind = iota
	// TokenAtom is an element symbol with an optional count, e.g. Fe2.
	TokenAtom
	// TokenOpen is one of ( [ {.
	TokenOpen
	// TokenClose is one of ) ] } with an optional multiplier.
	TokenClose
)

// String returns the kind name.
func (k TokenKind) String() string {
	switch k {
	case TokenAtom:
		return "atom"
	case TokenOpen:
		return "open"
	case TokenClose:
		return "close"
	default:
		return "none"
	}
}

// Token is one matched unit of a formula.
type Token struct {
	Kind TokenKind

	// Symbol is the atom symbol for TokenAtom and the bracket character
	// for TokenOpen and TokenClose.
	Symbol string

	// Count is the atom count or closing multiplier; 1 when no digits follow.
	Count int64

	// Pos is the byte offset of the token; Width is its length in bytes.
	Pos   int
	Width int

	// Overflow is set when the digit group does not fit in an int64.
	// Count is then math.MaxInt64.
	Overflow bool
}

// Next matches the token starting at offset i. Matching is tried in
// priority order: atom, opening bracket, closing bracket.
func Next(s string, i int) Token {
	if i >= len(s) {
		return Token{Kind: TokenNone, Pos: i}
	}

	b := s[i]
	switch {
	case mp.IsUpper(b):
		end := i + 1
		if end < len(s) && mp.IsLower(s[end]) {
			end++
		}
		count, width, overflow := scanCount(s, end)
		return Token{
			Kind:     TokenAtom,
			Symbol:   s[i:end],
			Count:    count,
			Pos:      i,
			Width:    end - i + width,
			Overflow: overflow,
		}

	case mp.IsOpeningBracket(b):
		return Token{Kind: TokenOpen, Symbol: s[i : i+1], Count: 1, Pos: i, Width: 1}

	case mp.IsClosingBracket(b):
		count, width, overflow := scanCount(s, i+1)
		return Token{
			Kind:     TokenClose,
			Symbol:   s[i : i+1],
			Count:    count,
			Pos:      i,
			Width:    1 + width,
			Overflow: overflow,
		}
	}

	return Token{Kind: TokenNone, Pos: i}
}

// scanCount reads the digit run at offset i. It returns 1 and width 0 when
// no digit is present, and saturates at math.MaxInt64 on overflow.
func scanCount(s string, i int) (count int64, width int, overflow bool) {
	j := i
	for j < len(s) && mp.IsDigit(s[j]) {
		d := int64(s[j] - '0')
		if !overflow {
			if count > (math.MaxInt64-d)/10 {
				overflow = true
				count = math.MaxInt64
			} else {
				count = count*10 + d
			}
		}
		j++
	}
	if j == i {
		return 1, 0, false
	}
	return count, j - i, overflow
}

// Tokenize splits formula into tokens. It stops at the first position
// where nothing matches and returns that offset; for a fully tokenized
// formula the offset equals len(formula).
func Tokenize(formula string) ([]Token, int) {
	var tokens []Token
	i := 0
	for i < len(formula) {
		tok := Next(formula, i)
		if tok.Kind == TokenNone {
			break
		}
		tokens = append(tokens, tok)
		i += tok.Width
	}
	return tokens, i
}
