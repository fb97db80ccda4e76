// Package parser turns a molecule formula into its atom composition.
//
// The Accumulator walks the formula once, left to right, keeping a stack of
// group contexts. Atoms are added to the innermost open group. When a group
// closes, its counts are multiplied by the closing multiplier and merged into
// the enclosing group. The walk is iterative, so nesting depth is bounded
// only by memory.
//
// By default the Accumulator is lenient: it expects input that already
// passed validation and stops quietly at anything it cannot read. Strict
// mode turns those stops into errors.
package parser

import (
	"fmt"

	mp "github.com/chemform/molparse"
)

// Option configures an Accumulator.
type Option func(*Accumulator)

// WithStrict enables strict mode. A strict Accumulator returns a
// *molparse.StructuralError for unreadable input and
// molparse.ErrCountOverflow when a count does not fit in an int64.
func WithStrict(strict bool) Option {
	return func(a *Accumulator) {
		a.strict = strict
	}
}

// Accumulator counts the atoms of one formula.
//
// An Accumulator is not safe for concurrent use.
type Accumulator struct {
	formula  string
	stack    contextStack
	strict   bool
	maxDepth int
	runs     int
	overflow bool
}

// New creates an Accumulator for formula. The formula is expected to be
// valid; New itself never fails.
func New(formula string, opts ...Option) *Accumulator {
	a := &Accumulator{
		formula: formula,
		stack:   newContextStack(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Formula returns the formula the Accumulator was built for.
func (a *Accumulator) Formula() string {
	return a.formula
}

// Strict reports whether strict mode is enabled.
func (a *Accumulator) Strict() bool {
	return a.strict
}

// Depth returns the current number of contexts on the stack, root included.
// It is 1 after a run over well formed input.
func (a *Accumulator) Depth() int {
	return a.stack.depth()
}

// MaxDepth returns the deepest stack seen by any run so far.
func (a *Accumulator) MaxDepth() int {
	return a.maxDepth
}

// Runs returns how many times Run has been called since creation or the
// last Reset.
func (a *Accumulator) Runs() int {
	return a.runs
}

// Overflowed reports whether any count saturated at math.MaxInt64 since
// creation or the last Reset. Lenient runs succeed with the saturated
// count; strict runs fail with molparse.ErrCountOverflow.
func (a *Accumulator) Overflowed() bool {
	return a.overflow
}

// Run scans the formula and adds its atoms to the root context.
//
// Running twice without Reset adds the counts again, so each count doubles.
func (a *Accumulator) Run() error {
	a.runs++
	s := a.formula
	overflow := false

	if a.stack.depth() > a.maxDepth {
		a.maxDepth = a.stack.depth()
	}

	i := 0
	for i < len(s) {
		tok := Next(s, i)
		if tok.Overflow {
			overflow = true
		}

		switch tok.Kind {
		case TokenAtom:
			if !a.stack.top().Add(tok.Symbol, tok.Count) {
				overflow = true
			}

		case TokenOpen:
			a.stack.push(acquireContext())
			if d := a.stack.depth(); d > a.maxDepth {
				a.maxDepth = d
			}

		case TokenClose:
			group, ok := a.stack.pop()
			if !ok {
				if a.strict {
					return a.fault(mp.FaultUnmatchedClose, i)
				}
				a.overflow = a.overflow || overflow
				return nil
			}
			if !a.stack.top().MergeScaled(group, tok.Count) {
				overflow = true
			}
			releaseContext(group)

		default:
			if a.strict {
				return a.fault(mp.FaultUnexpectedByte, i)
			}
			a.overflow = a.overflow || overflow
			return nil
		}

		i += tok.Width
	}
	if overflow {
		a.overflow = true
	}

	if a.strict {
		if a.stack.depth() != 1 {
			return a.fault(mp.FaultUnclosedGroup, len(s))
		}
		if overflow {
			return fmt.Errorf("%w: %q", mp.ErrCountOverflow, s)
		}
	}
	return nil
}

func (a *Accumulator) fault(f mp.Fault, pos int) error {
	return &mp.StructuralError{
		Fault:    f,
		Formula:  a.formula,
		Position: pos,
		Depth:    a.stack.depth(),
	}
}

// Result returns a copy of the root context. Before Run it is empty.
//
// Groups left open by a lenient run over malformed input are not part of
// the result.
func (a *Accumulator) Result() mp.Composition {
	return a.stack.root().Clone()
}

// Reset clears every count so the next Run starts from zero.
func (a *Accumulator) Reset() {
	a.stack.reset()
	a.runs = 0
	a.overflow = false
}

// String renders the formula and the current root counts.
func (a *Accumulator) String() string {
	return a.formula + " -> " + a.stack.root().String()
}

// Describe returns a short description naming the formula.
func (a *Accumulator) Describe() string {
	return "Parser for formula: " + a.formula
}

// Parse is a convenience that runs a fresh Accumulator over formula and
// returns its result.
func Parse(formula string, opts ...Option) (mp.Composition, error) {
	a := New(formula, opts...)
	if err := a.Run(); err != nil {
		return mp.Composition{}, err
	}
	return a.Result(), nil
}
