// Package query filters a store by key predicates and returns views over the
// matching keys.
package query

import (
	"github.com/nasdf/nosqldb/core"
)

// Predicate reports whether the given key belongs in a query result.
type Predicate[K comparable] func(key K) bool

// Engine evaluates predicates against a single backing store.
//
// The engine never mutates the backing store.
type Engine[K comparable, V core.Value[V]] struct {
	store      core.Queryable[K, V]
	predicates []Predicate[K]
}

// NewEngine returns an engine bound to the given store.
func NewEngine[K comparable, V core.Value[V]](store *core.Store[K, V]) *Engine[K, V] {
	return &Engine[K, V]{store: store}
}

// Query returns a view over every key of the backing store matching the
// predicate. Registered predicates are not applied.
func (e *Engine[K, V]) Query(p Predicate[K]) *View[K, V] {
	return NewView(e.store, filter(e.store.Keys(), p))
}

// Add registers predicates for RunAll.
func (e *Engine[K, V]) Add(predicates ...Predicate[K]) {
	e.predicates = append(e.predicates, predicates...)
}

// Predicates returns the number of registered predicates.
func (e *Engine[K, V]) Predicates() int {
	return len(e.predicates)
}

// Reset removes all registered predicates.
func (e *Engine[K, V]) Reset() {
	e.predicates = nil
}

// RunAll returns a view over the keys matching every registered predicate.
//
// Predicates run in registration order, each one scanning only the keys
// left by the previous ones.
func (e *Engine[K, V]) RunAll() *View[K, V] {
	view := NewView(e.store, e.store.Keys())
	for _, p := range e.predicates {
		view.keys = view.RestrictTo(p)
	}
	return view
}

func (e *Engine[K, V]) Lookup(key K) (V, bool) {
	return e.store.Lookup(key)
}

func (e *Engine[K, V]) Values() []V {
	return e.store.Values()
}

func (e *Engine[K, V]) ValuesOf(keys ...K) ([]V, error) {
	return e.store.ValuesOf(keys...)
}

func (e *Engine[K, V]) Keys() []K {
	return e.store.Keys()
}

func (e *Engine[K, V]) ContainsKey(key K) bool {
	return e.store.ContainsKey(key)
}

func filter[K comparable](keys []K, p Predicate[K]) []K {
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if p(k) {
			out = append(out, k)
		}
	}
	return out
}
