package validate

import (
	"time"
)

// Observer is told about every rule evaluation. err is nil when the rule
// passed.
type Observer func(rule string, elapsed time.Duration, err error)

// Chain runs rules in order and stops at the first failure.
// A Chain with no rules accepts every formula.
//
// A Chain is safe for concurrent use once built; Add must not race with
// Check.
type Chain struct {
	rules    []Rule
	observer Observer
}

// NewChain creates a chain running rules in the given order.
func NewChain(rules ...Rule) *Chain {
	c := &Chain{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if r != nil {
			c.rules = append(c.rules, r)
		}
	}
	return c
}

// DefaultChain returns the standard chain: NotEmpty, StartsWith, Brackets.
func DefaultChain() *Chain {
	return NewChain(NotEmpty(), StartsWith(), Brackets())
}

// WithObserver returns a copy of the chain that reports each evaluation
// to fn.
func (c *Chain) WithObserver(fn Observer) *Chain {
	rules := make([]Rule, len(c.rules))
	copy(rules, c.rules)
	return &Chain{rules: rules, observer: fn}
}

// Add appends a rule to the chain.
func (c *Chain) Add(rule Rule) {
	if rule != nil {
		c.rules = append(c.rules, rule)
	}
}

// Rules returns the rules in execution order.
func (c *Chain) Rules() []Rule {
	rules := make([]Rule, len(c.rules))
	copy(rules, c.rules)
	return rules
}

// Len returns the number of rules.
func (c *Chain) Len() int {
	return len(c.rules)
}

// Check runs every rule and returns the first failure, or nil.
func (c *Chain) Check(formula string) error {
	for _, rule := range c.rules {
		var start time.Time
		if c.observer != nil {
			start = time.Now()
		}

		err := rule.Check(formula)

		if c.observer != nil {
			c.observer(rule.Name(), time.Since(start), err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IsValid reports whether every rule passes, without surfacing the reason.
func (c *Chain) IsValid(formula string) bool {
	return c.Check(formula) == nil
}

// Validate runs the chain in one of two modes. With raiseOnFailure the
// first failing rule's error is returned; without it a failure is only
// reported as false.
func (c *Chain) Validate(formula string, raiseOnFailure bool) (bool, error) {
	if err := c.Check(formula); err != nil {
		if raiseOnFailure {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

var defaultChain = DefaultChain()

// Validate runs the default chain. See Chain.Validate.
func Validate(formula string, raiseOnFailure bool) (bool, error) {
	return defaultChain.Validate(formula, raiseOnFailure)
}

// Check runs the default chain in raising mode.
func Check(formula string) error {
	return defaultChain.Check(formula)
}
