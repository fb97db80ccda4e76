package parser

import (
	"sync"

	mp "github.com/chemform/molparse"
)

// contextPool holds reusable group contexts.
var contextPool = sync.Pool{
	New: func() any {
		return mp.NewComposition(8)
	},
}

// acquireContext gets an empty context from the pool.
func acquireContext() *mp.Composition {
	c := contextPool.Get().(*mp.Composition)
	c.Reset()
	return c
}

// releaseContext returns a context to the pool.
func releaseContext(c *mp.Composition) {
	if c == nil {
		return
	}
	// Don't keep contexts that grew unusually large
	if c.Len() <= 64 {
		contextPool.Put(c)
	}
}

// contextStack is the LIFO of open group contexts. Index 0 is the root.
type contextStack struct {
	items []*mp.Composition
}

func newContextStack() contextStack {
	items := make([]*mp.Composition, 1, 4)
	items[0] = mp.NewComposition(8)
	return contextStack{items: items}
}

func (s *contextStack) push(c *mp.Composition) {
	s.items = append(s.items, c)
}

// pop removes the top context. The root is never removed.
func (s *contextStack) pop() (*mp.Composition, bool) {
	if len(s.items) <= 1 {
		return nil, false
	}
	top := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = nil
	s.items = s.items[:len(s.items)-1]
	return top, true
}

func (s *contextStack) top() *mp.Composition {
	return s.items[len(s.items)-1]
}

func (s *contextStack) root() *mp.Composition {
	return s.items[0]
}

func (s *contextStack) depth() int {
	return len(s.items)
}

// reset releases every group context and empties the root.
func (s *contextStack) reset() {
	for len(s.items) > 1 {
		c, _ := s.pop()
		releaseContext(c)
	}
	s.items[0].Reset()
}
