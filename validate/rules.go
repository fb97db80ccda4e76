package validate

import (
	"strings"

	mp "github.com/chemform/molparse"
)

// NotEmpty rejects empty and whitespace-only formulas.
func NotEmpty() Rule {
	return notEmpty{}
}

type notEmpty struct{}

func (notEmpty) Name() string { return string(RuleIDNotEmpty) }

func (notEmpty) Check(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return mp.NewValidationError(string(RuleIDNotEmpty), mp.ReasonEmpty, formula, -1)
	}
	return nil
}

// StartsWith requires the first character to be a letter or '('.
//
// '[' and '{' are rejected in first position even though they are valid
// group openers elsewhere.
func StartsWith() Rule {
	return startsWith{}
}

type startsWith struct{}

func (startsWith) Name() string { return string(RuleIDStartsWith) }

func (startsWith) Check(formula string) error {
	if formula == "" || !(mp.IsLetter(formula[0]) || formula[0] == '(') {
		return mp.NewValidationError(string(RuleIDStartsWith), mp.ReasonBadStart, formula, 0)
	}
	return nil
}

// Brackets checks every character and the bracket nesting in one pass.
//
// Each bracket is pushed onto a stack unless it closes the bracket on top,
// in which case the top is popped. The formula is balanced when the stack
// ends empty. Anything that is not an ASCII letter, digit or bracket is
// rejected at its offset. O(n) time, O(depth) space.
func Brackets() Rule {
	return brackets{}
}

type brackets struct{}

func (brackets) Name() string { return string(RuleIDBrackets) }

func (brackets) Check(formula string) error {
	var stack bracketStack

	for i := 0; i < len(formula); i++ {
		b := formula[i]
		switch {
		case mp.IsBracket(b):
			stack.push(b, i)
		case !mp.IsAlnum(b):
			return mp.NewValidationError(string(RuleIDBrackets), mp.ReasonIllegalCharacter, formula, i)
		}
	}

	if !stack.isEmpty() {
		return mp.NewValidationError(string(RuleIDBrackets), mp.ReasonUnbalanced, formula, stack.bottom())
	}
	return nil
}

// bracketStack holds unmatched brackets with their offsets.
type bracketStack struct {
	items []bracketEntry
}

type bracketEntry struct {
	char byte
	pos  int
}

// push pops the top when b closes it, otherwise pushes b.
func (s *bracketStack) push(b byte, pos int) {
	if n := len(s.items); n > 0 && mp.ClosesBracket(s.items[n-1].char, b) {
		s.items = s.items[:n-1]
		return
	}
	s.items = append(s.items, bracketEntry{char: b, pos: pos})
}

func (s *bracketStack) isEmpty() bool {
	return len(s.items) == 0
}

// bottom returns the offset of the oldest unmatched bracket.
func (s *bracketStack) bottom() int {
	return s.items[0].pos
}
