package core

import "time"

// Builder assembles records field by field.
type Builder[K comparable, P Payload[P]] struct {
	record *Record[K, P]
}

// NewBuilder returns a builder starting from a default record.
func NewBuilder[K comparable, P Payload[P]]() *Builder[K, P] {
	return &Builder[K, P]{record: NewRecord[K, P]()}
}

func (b *Builder[K, P]) Name(name string) *Builder[K, P] {
	b.record.Name = name
	return b
}

func (b *Builder[K, P]) Description(description string) *Builder[K, P] {
	b.record.Description = description
	return b
}

func (b *Builder[K, P]) Timestamp(t time.Time) *Builder[K, P] {
	b.record.Timestamp = t
	return b
}

// Children appends child keys to the record.
func (b *Builder[K, P]) Children(keys ...K) *Builder[K, P] {
	b.record.Children = append(b.record.Children, keys...)
	return b
}

func (b *Builder[K, P]) Payload(payload P) *Builder[K, P] {
	b.record.Payload = payload
	return b
}

// Build returns the assembled record and resets the builder to a default record.
func (b *Builder[K, P]) Build() *Record[K, P] {
	record := b.record
	b.record = NewRecord[K, P]()
	return record
}
