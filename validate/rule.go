// Package validate provides the validator chain that screens raw formulas
// before accumulation.
package validate

// Rule is a single validation check in the chain.
//
// Rules should be:
// - Stateless: the formula is the only input
// - Thread-safe: one Rule value may be shared by many chains and goroutines
// - Classified: failures return a *molparse.ValidationError
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check returns nil if the formula passes, or the reason it does not.
	Check(formula string) error
}

// RuleFunc is a function type that implements Rule.
// Useful for ad hoc rules that don't need a full struct.
type RuleFunc struct {
	name string
	fn   func(formula string) error
}

// NewRuleFunc creates a Rule from a function.
func NewRuleFunc(name string, fn func(formula string) error) Rule {
	return &RuleFunc{name: name, fn: fn}
}

// Name returns the rule name.
func (r *RuleFunc) Name() string {
	return r.name
}

// Check calls the wrapped function.
func (r *RuleFunc) Check(formula string) error {
	return r.fn(formula)
}

// RuleID identifies a built-in rule.
type RuleID string

// Built-in rule identifiers, in chain order.
const (
	RuleIDNotEmpty   RuleID = "not-empty"
	RuleIDStartsWith RuleID = "starts-with"
	RuleIDBrackets   RuleID = "brackets"
)

// String returns the identifier.
func (id RuleID) String() string {
	return string(id)
}
