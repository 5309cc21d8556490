// Package storage provides the byte stores used for persisted databases and
// content addressed snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"

	ipldstorage "github.com/ipld/go-ipld-prime/storage"
)

var ErrNotFound = errors.New("key not found")

// Storage is a key value byte store. Snapshot blocks are written to it by an
// IPLD link system under their binary link, persisted databases under text
// keys such as "nosqldb.3".
type Storage interface {
	ipldstorage.ReadableStorage
	ipldstorage.WritableStorage
	ipldstorage.StreamingReadableStorage
}

func notFound(key string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, key)
}

// Read returns the content stored under key. A missing key is reported as
// ErrNotFound whatever the backend returns for it.
func Read(ctx context.Context, s Storage, key string) ([]byte, error) {
	ok, err := s.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(key)
	}
	return s.Get(ctx, key)
}

// NextFree returns the first number n, starting at from, for which no content
// is stored under name(n).
func NextFree(ctx context.Context, s Storage, name func(n int) string, from int) (int, error) {
	for n := from; ; n++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		ok, err := s.Has(ctx, name(n))
		if err != nil {
			return 0, err
		}
		if !ok {
			return n, nil
		}
	}
}
