package molparse

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Composition maps atom symbols to counts. It remembers the order in which
// symbols were first added so that renderings are stable.
//
// The zero value is an empty, ready to use Composition. A Composition is not
// safe for concurrent mutation.
type Composition struct {
	counts map[string]int64
	order  []string
}

// NewComposition returns an empty Composition with room for n symbols.
func NewComposition(n int) *Composition {
	return &Composition{
		counts: make(map[string]int64, n),
		order:  make([]string, 0, n),
	}
}

// CompositionOf builds a Composition from pairs given in order, e.g.
// CompositionOf("H", 2, "O", 1). It panics on malformed pairs and is meant
// for literals and tests.
func CompositionOf(pairs ...any) Composition {
	if len(pairs)%2 != 0 {
		panic("molparse: CompositionOf needs symbol/count pairs")
	}
	c := NewComposition(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		atom := pairs[i].(string)
		switch n := pairs[i+1].(type) {
		case int:
			c.Add(atom, int64(n))
		case int64:
			c.Add(atom, n)
		default:
			panic("molparse: CompositionOf count must be int or int64")
		}
	}
	return *c
}

// Add adds n to atom's count, creating the entry if needed. It reports
// false when the sum overflowed; the count then saturates at math.MaxInt64.
func (c *Composition) Add(atom string, n int64) bool {
	if c.counts == nil {
		c.counts = make(map[string]int64)
	}
	cur, ok := c.counts[atom]
	if !ok {
		c.order = append(c.order, atom)
	}
	if n > 0 && cur > math.MaxInt64-n {
		c.counts[atom] = math.MaxInt64
		return false
	}
	c.counts[atom] = cur + n
	return true
}

// MergeScaled adds every count of other, multiplied by k, into c. Entries
// are visited in other's insertion order. It reports false if any product
// or sum overflowed.
func (c *Composition) MergeScaled(other *Composition, k int64) bool {
	if other == nil {
		return true
	}
	ok := true
	for _, atom := range other.order {
		product, fits := mulInt64(other.counts[atom], k)
		if !fits {
			ok = false
		}
		if !c.Add(atom, product) {
			ok = false
		}
	}
	return ok
}

// mulInt64 multiplies two non-negative values, saturating on overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64, false
	}
	return a * b, true
}

// Count returns the count for atom, or 0 if absent.
func (c *Composition) Count(atom string) int64 {
	return c.counts[atom]
}

// Has reports whether atom has an entry.
func (c *Composition) Has(atom string) bool {
	_, ok := c.counts[atom]
	return ok
}

// Len returns the number of distinct atoms.
func (c *Composition) Len() int {
	return len(c.order)
}

// IsEmpty reports whether no atom has been recorded.
func (c *Composition) IsEmpty() bool {
	return len(c.order) == 0
}

// Atoms returns the atom symbols in first-seen order.
func (c *Composition) Atoms() []string {
	atoms := make([]string, len(c.order))
	copy(atoms, c.order)
	return atoms
}

// Map returns a copy of the counts.
func (c *Composition) Map() map[string]int64 {
	m := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		m[k] = v
	}
	return m
}

// Total returns the sum of all counts, saturating at math.MaxInt64.
func (c *Composition) Total() int64 {
	var total int64
	for _, v := range c.counts {
		if total > math.MaxInt64-v {
			return math.MaxInt64
		}
		total += v
	}
	return total
}

// Equal reports whether both compositions hold the same counts. Order is
// ignored.
func (c *Composition) Equal(other *Composition) bool {
	if other == nil {
		return c.IsEmpty()
	}
	if len(c.counts) != len(other.counts) {
		return false
	}
	for k, v := range c.counts {
		if ov, ok := other.counts[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (c *Composition) Clone() Composition {
	clone := NewComposition(len(c.order))
	for _, atom := range c.order {
		clone.order = append(clone.order, atom)
		clone.counts[atom] = c.counts[atom]
	}
	return *clone
}

// Reset removes all entries, keeping allocated storage.
func (c *Composition) Reset() {
	clear(c.counts)
	c.order = c.order[:0]
}

// String renders the mapping as {K: 4, O: 14} in first-seen order.
func (c Composition) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, atom := range c.order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(atom)
		sb.WriteString(": ")
		sb.WriteString(strconv.FormatInt(c.counts[atom], 10))
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON encodes the composition as a JSON object in first-seen order.
func (c Composition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, atom := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(atom)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(c.counts[atom], 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
