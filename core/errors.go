package core

import "errors"

var (
	// ErrDecodeUnsupported is returned when a record is asked to decode itself.
	ErrDecodeUnsupported = errors.New("record decoding needs the enclosing key and type bindings: use codec.Decoder")
	// ErrInconsistent is returned when a store cannot produce a value for one of its own keys.
	ErrInconsistent = errors.New("store inconsistency")
	// ErrKeyNotFound is returned when a requested key is not in the store.
	ErrKeyNotFound = errors.New("key not found")
)
