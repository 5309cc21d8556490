package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/beevik/etree"
)

// Store is an in-memory mapping from unique keys to values.
//
// Values are returned by reference: mutating a value obtained from Lookup
// mutates the stored value. The store map is guarded by a lock, the values
// themselves are not.
type Store[K comparable, V Value[V]] struct {
	entries     map[K]V
	keyType     string
	payloadType string
	lock        sync.RWMutex
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyType     string
	payloadType string
}

// WithTypeNames sets the key and payload type names written by Encode.
func WithTypeNames(keyType, payloadType string) StoreOption {
	return func(o *storeOptions) {
		o.keyType = keyType
		o.payloadType = payloadType
	}
}

// NewStore returns an empty store.
func NewStore[K comparable, V Value[V]](opts ...StoreOption) *Store[K, V] {
	var (
		key K
		val V
	)
	options := &storeOptions{
		keyType:     typeName(key),
		payloadType: typeName(val),
	}
	for _, opt := range opts {
		opt(options)
	}
	return &Store[K, V]{
		entries:     make(map[K]V),
		keyType:     options.keyType,
		payloadType: options.payloadType,
	}
}

// NewRecordStore returns an empty store of records. The encoded payload type
// name defaults to the name of the payload type rather than the record type.
func NewRecordStore[K comparable, P Payload[P]](opts ...StoreOption) *Store[K, *Record[K, P]] {
	var (
		key K
		pl  P
	)
	opts = append([]StoreOption{WithTypeNames(typeName(key), typeName(pl))}, opts...)
	return NewStore[K, *Record[K, P]](opts...)
}

// Insert adds the value under the given key. It returns false and leaves the
// store unchanged if the key already exists.
func (s *Store[K, V]) Insert(key K, val V) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = val
	return true
}

// Lookup returns the value stored under the given key.
func (s *Store[K, V]) Lookup(key K) (V, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	val, ok := s.entries[key]
	return val, ok
}

// Values returns all values in the store.
func (s *Store[K, V]) Values() []V {
	s.lock.RLock()
	defer s.lock.RUnlock()

	values := make([]V, 0, len(s.entries))
	for _, val := range s.entries {
		values = append(values, val)
	}
	return values
}

// ValuesOf returns the values stored under the given keys in key order.
// A missing key is reported with ErrKeyNotFound rather than skipped.
func (s *Store[K, V]) ValuesOf(keys ...K) ([]V, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	values := make([]V, 0, len(keys))
	for _, key := range keys {
		val, ok := s.entries[key]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
		}
		values = append(values, val)
	}
	return values, nil
}

// Keys returns a snapshot of all keys in the store in no particular order.
func (s *Store[K, V]) Keys() []K {
	s.lock.RLock()
	defer s.lock.RUnlock()

	keys := make([]K, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// ContainsKey returns true if the key is in the store.
func (s *Store[K, V]) ContainsKey(key K) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.entries[key]
	return ok
}

// Len returns the number of entries in the store.
func (s *Store[K, V]) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.entries)
}

// Remove deletes the entry under the given key. It returns false if the key
// is not in the store.
func (s *Store[K, V]) Remove(key K) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Clear removes all entries from the store.
func (s *Store[K, V]) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	clear(s.entries)
}

// Document returns the XML document of the store: the type names followed
// by one key element and one value element per entry. Entries are ordered by
// key, so an unchanged store always produces the same document.
//
// A value that cannot produce its element aborts the whole document and is
// reported as ErrInconsistent.
func (s *Store[K, V]) Document() (*etree.Document, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	doc := etree.NewDocument()
	root := doc.CreateElement(TagRoot)
	root.CreateElement(TagKeyType).SetText(s.keyType)
	root.CreateElement(TagPayloadType).SetText(s.payloadType)
	for _, key := range s.sortedKeys() {
		val := s.entries[key]
		el, err := val.Element()
		if err != nil {
			return nil, fmt.Errorf("%w: key %v: %w", ErrInconsistent, key, err)
		}
		root.CreateElement(TagKey).SetText(FormatKey(key))
		root.AddChild(el)
	}
	doc.IndentWithSettings(indentSettings())
	return doc, nil
}

// sortedKeys returns the keys ordered by CompareKeys. The caller must hold
// the lock.
func (s *Store[K, V]) sortedKeys() []K {
	keys := make([]K, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, CompareKeys[K])
	return keys
}

// Encode returns the XML text of the store.
func (s *Store[K, V]) Encode() (string, error) {
	doc, err := s.Document()
	if err != nil {
		return "", err
	}
	return doc.WriteToString()
}
