package storage

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memory struct {
	values map[string][]byte
	lock   sync.RWMutex
}

// NewMemory returns a Storage that keeps copies of its contents in memory.
func NewMemory() Storage {
	return &memory{
		values: make(map[string][]byte),
	}
}

func (m *memory) Has(ctx context.Context, key string) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	_, ok := m.values[key]
	return ok, nil
}

func (m *memory) Put(ctx context.Context, key string, content []byte) error {
	val := make([]byte, len(content))
	copy(val, content)

	m.lock.Lock()
	defer m.lock.Unlock()

	m.values[key] = val
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	content, ok := m.values[key]
	if !ok {
		return nil, notFound(key)
	}
	val := make([]byte, len(content))
	copy(val, content)
	return val, nil
}

// GetStream returns a reader over the content stored under key. Stored
// content is never mutated in place, so the reader needs no copy.
func (m *memory) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	content, ok := m.values[key]
	if !ok {
		return nil, notFound(key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}
