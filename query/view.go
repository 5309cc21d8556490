package query

import (
	"fmt"
	"slices"

	"github.com/nasdf/nosqldb/core"
)

// View is a read only handle over a subset of the keys of a backing store.
//
// Until Freeze is called the values returned by a view are the values held
// by the backing store, so mutating them mutates the store. Keys of the view
// missing from the backing store are reported as not found.
type View[K comparable, V core.Value[V]] struct {
	backing core.Queryable[K, V]
	keys    []K
	frozen  bool
}

// NewView returns a view over the given keys of the backing store.
func NewView[K comparable, V core.Value[V]](backing core.Queryable[K, V], keys []K) *View[K, V] {
	return &View[K, V]{
		backing: backing,
		keys:    slices.Clone(keys),
	}
}

// Lookup returns the value for a key in the view.
func (v *View[K, V]) Lookup(key K) (V, bool) {
	if !slices.Contains(v.keys, key) {
		var zero V
		return zero, false
	}
	return v.backing.Lookup(key)
}

// Values returns the values of every view key present in the backing store.
func (v *View[K, V]) Values() []V {
	values := make([]V, 0, len(v.keys))
	for _, k := range v.keys {
		if val, ok := v.backing.Lookup(k); ok {
			values = append(values, val)
		}
	}
	return values
}

// ValuesOf returns the values stored under the given keys in key order.
// A key outside the view or missing from the backing store fails with
// core.ErrKeyNotFound.
func (v *View[K, V]) ValuesOf(keys ...K) ([]V, error) {
	values := make([]V, 0, len(keys))
	for _, key := range keys {
		val, ok := v.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %v", core.ErrKeyNotFound, key)
		}
		values = append(values, val)
	}
	return values, nil
}

// Keys returns a copy of the view key set.
func (v *View[K, V]) Keys() []K {
	return slices.Clone(v.keys)
}

// ContainsKey reports whether the key is in the view and the backing store.
func (v *View[K, V]) ContainsKey(key K) bool {
	return slices.Contains(v.keys, key) && v.backing.ContainsKey(key)
}

// Len returns the size of the view key set.
func (v *View[K, V]) Len() int {
	return len(v.keys)
}

// RestrictTo returns the keys of the view matching the predicate.
// The view itself is left unchanged.
func (v *View[K, V]) RestrictTo(p Predicate[K]) []K {
	return filter(v.keys, p)
}

// Add appends keys to the view key set.
func (v *View[K, V]) Add(keys ...K) {
	v.keys = append(v.keys, keys...)
}

// Clear empties the view key set. The backing store is not touched.
func (v *View[K, V]) Clear() {
	v.keys = nil
}

// Engine returns an engine bound to the view, for running nested queries
// over its keys.
func (v *View[K, V]) Engine() *Engine[K, V] {
	return &Engine[K, V]{store: v}
}

// Frozen reports whether the view owns a private copy of its values.
func (v *View[K, V]) Frozen() bool {
	return v.frozen
}

// Freeze replaces the backing store with a private store holding clones of
// every view value. Afterwards changes to the original store are not visible
// through the view and changes to values obtained from the view do not reach
// the original store. Keys missing from the backing store stay in the key set
// but have no value.
func (v *View[K, V]) Freeze() {
	private := core.NewStore[K, V]()
	for _, k := range v.keys {
		if val, ok := v.backing.Lookup(k); ok {
			private.Insert(k, val.Clone())
		}
	}
	v.backing = private
	v.frozen = true
}
