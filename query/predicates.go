package query

import (
	"strings"
	"time"

	"github.com/nasdf/nosqldb/core"
)

// The record predicates resolve keys with a lookup function such as the
// Lookup method of a store or a view. Keys without a record never match.

// HasChildren matches keys whose record has at least one child.
func HasChildren[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool)) Predicate[K] {
	return matchRecord(lookup, func(rec *core.Record[K, P]) bool {
		return len(rec.Children) > 0
	})
}

// NoChildren matches keys whose record has no children.
func NoChildren[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool)) Predicate[K] {
	return matchRecord(lookup, func(rec *core.Record[K, P]) bool {
		return len(rec.Children) == 0
	})
}

// NameContains matches keys whose record name contains the given text.
func NameContains[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool), text string) Predicate[K] {
	return matchRecord(lookup, func(rec *core.Record[K, P]) bool {
		return strings.Contains(rec.Name, text)
	})
}

// MetadataContains matches keys whose record name, description or any child
// key contains the given text.
func MetadataContains[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool), text string) Predicate[K] {
	return matchRecord(lookup, func(rec *core.Record[K, P]) bool {
		if strings.Contains(rec.Name, text) || strings.Contains(rec.Description, text) {
			return true
		}
		for _, child := range rec.Children {
			if strings.Contains(core.FormatKey(child), text) {
				return true
			}
		}
		return false
	})
}

// TimestampBetween matches keys whose record timestamp is after first and
// not after second.
func TimestampBetween[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool), first, second time.Time) Predicate[K] {
	return matchRecord(lookup, func(rec *core.Record[K, P]) bool {
		return rec.Timestamp.After(first) && !rec.Timestamp.After(second)
	})
}

// KeyContains matches keys whose text form contains the given text.
func KeyContains[K comparable](text string) Predicate[K] {
	return func(key K) bool {
		return strings.Contains(core.FormatKey(key), text)
	}
}

// Not inverts a predicate.
func Not[K comparable](p Predicate[K]) Predicate[K] {
	return func(key K) bool {
		return !p(key)
	}
}

func matchRecord[K comparable, P core.Payload[P]](lookup func(K) (*core.Record[K, P], bool), fn func(*core.Record[K, P]) bool) Predicate[K] {
	return func(key K) bool {
		rec, ok := lookup(key)
		if !ok || rec == nil {
			return false
		}
		return fn(rec)
	}
}
