package molparse

// Result pairs a formula with the atom counts it represents.
type Result struct {
	// Formula is the parsed input.
	Formula string `json:"formula"`

	// Composition is the folded root context.
	Composition Composition `json:"composition"`

	// Cached is true when the composition was served from the result cache.
	Cached bool `json:"cached,omitempty"`
}

// NewResult creates a Result holding a copy of comp.
func NewResult(formula string, comp *Composition) *Result {
	r := &Result{Formula: formula}
	if comp != nil {
		r.Composition = comp.Clone()
	}
	return r
}

// Counts returns a copy of the atom counts.
func (r *Result) Counts() map[string]int64 {
	return r.Composition.Map()
}

// Count returns the count for atom.
func (r *Result) Count(atom string) int64 {
	return r.Composition.Count(atom)
}

// String renders "formula -> {A: n, ...}".
func (r *Result) String() string {
	return r.Formula + " -> " + r.Composition.String()
}
