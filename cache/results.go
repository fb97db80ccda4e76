package cache

import (
	mp "github.com/chemform/molparse"
)

// Results caches compositions by formula text. Stored and returned
// compositions are copies, so callers may modify what they get back.
type Results struct {
	lru *LRU[string, mp.Composition]
}

// NewResults creates a result cache with the given capacity.
func NewResults(capacity int) *Results {
	return &Results{lru: NewLRU[string, mp.Composition](capacity)}
}

// Lookup returns a Result for formula marked as cached, or nil.
func (r *Results) Lookup(formula string) *mp.Result {
	comp, ok := r.lru.Get(formula)
	if !ok {
		return nil
	}
	res := mp.NewResult(formula, &comp)
	res.Cached = true
	return res
}

// Store records the composition of formula.
func (r *Results) Store(formula string, comp *mp.Composition) {
	if comp == nil {
		return
	}
	r.lru.Set(formula, comp.Clone())
}

// Forget drops formula from the cache.
func (r *Results) Forget(formula string) {
	r.lru.Delete(formula)
}

// Purge drops every cached formula.
func (r *Results) Purge() {
	r.lru.Clear()
}

// Len returns the number of cached formulas.
func (r *Results) Len() int {
	return r.lru.Len()
}

// Stats returns cache statistics.
func (r *Results) Stats() Stats {
	return r.lru.Stats()
}
