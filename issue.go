package molparse

import (
	"errors"
	"fmt"
)

// Reason is the human-readable explanation attached to a rejected formula.
// The set of reasons is fixed; every validation rule reports exactly one.
type Reason string

const (
	// ReasonEmpty is reported for empty or whitespace-only formulas.
	ReasonEmpty Reason = "formula cannot be empty"
	// ReasonBadStart is reported when the first character is neither a letter nor '('.
	ReasonBadStart Reason = "formula should start with an alphabetic character or ("
	// ReasonIllegalCharacter is reported for anything other than letters, digits and brackets.
	ReasonIllegalCharacter Reason = "formula should only contain brackets or alphanumeric characters"
	// ReasonUnbalanced is reported when brackets do not pair up by type and position.
	ReasonUnbalanced Reason = "formula should have a matching set of opening and closing brackets"
)

// String returns the reason text.
func (r Reason) String() string {
	return string(r)
}

// Sentinel errors. Every *ValidationError matches ErrValidation and the
// sentinel of its reason under errors.Is.
var (
	ErrValidation         = errors.New("molecule formula: validation failed")
	ErrEmptyFormula       = errors.New("molecule formula: " + string(ReasonEmpty))
	ErrBadStart           = errors.New("molecule formula: " + string(ReasonBadStart))
	ErrIllegalCharacter   = errors.New("molecule formula: " + string(ReasonIllegalCharacter))
	ErrUnbalancedBrackets = errors.New("molecule formula: " + string(ReasonUnbalanced))

	// ErrStructure is matched by every *StructuralError.
	ErrStructure = errors.New("molecule formula: structural fault")

	// ErrCountOverflow is returned in strict mode when a count or
	// multiplier does not fit in an int64.
	ErrCountOverflow = errors.New("molecule formula: atom count overflows int64")

	// ErrFormulaTooLong is returned when a formula exceeds Options.MaxFormulaLength.
	ErrFormulaTooLong = errors.New("molecule formula: formula exceeds maximum length")
)

var reasonSentinels = map[Reason]error{
	ReasonEmpty:            ErrEmptyFormula,
	ReasonBadStart:         ErrBadStart,
	ReasonIllegalCharacter: ErrIllegalCharacter,
	ReasonUnbalanced:       ErrUnbalancedBrackets,
}

// ValidationError is the single error kind produced by the validator chain.
type ValidationError struct {
	// Rule is the name of the rule that rejected the formula.
	Rule string `json:"rule"`

	// Reason is the catalogued explanation.
	Reason Reason `json:"reason"`

	// Formula is the rejected input.
	Formula string `json:"formula"`

	// Position is the byte offset of the offending character, or -1 when
	// the failure is not tied to one character.
	Position int `json:"position"`
}

// NewValidationError creates a ValidationError.
func NewValidationError(rule string, reason Reason, formula string, position int) *ValidationError {
	return &ValidationError{
		Rule:     rule,
		Reason:   reason,
		Formula:  formula,
		Position: position,
	}
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("molecule formula: %s (offset %d)", e.Reason, e.Position)
	}
	return "molecule formula: " + string(e.Reason)
}

// Is reports whether target is ErrValidation or the sentinel of e.Reason.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	sentinel, ok := reasonSentinels[e.Reason]
	return ok && target == sentinel
}

// Fault classifies a structural fault seen by the accumulator in strict mode.
type Fault string

const (
	// FaultUnexpectedByte means no token matched at the cursor.
	FaultUnexpectedByte Fault = "unexpected character"
	// FaultUnmatchedClose means a closing bracket arrived at depth 1.
	FaultUnmatchedClose Fault = "closing bracket without an open group"
	// FaultUnclosedGroup means the scan ended with open groups left.
	FaultUnclosedGroup Fault = "unclosed bracket group"
)

// StructuralError reports input that reached the accumulator without being
// well formed. It is only returned when strict mode is enabled.
type StructuralError struct {
	Fault    Fault
	Formula  string
	Position int
	Depth    int
}

// Error implements error.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("molecule formula: %s at offset %d (depth %d)", e.Fault, e.Position, e.Depth)
}

// Is reports whether target is ErrStructure.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructure
}

// IsValidationError reports whether err carries a *ValidationError and
// returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
