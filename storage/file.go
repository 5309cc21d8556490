package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ipld/go-ipld-prime/storage/fsstore"
)

type file struct {
	store *fsstore.Store
}

// NewFile returns a Storage that keeps its contents as files under dir.
// The directory is created if it does not exist.
//
// The files are laid out for content addressed data: callers should write
// new keys rather than replace the content of existing ones. NextFree finds
// an unused key in a numbered series.
func NewFile(dir string) (Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	store := &fsstore.Store{}
	if err := store.InitDefaults(dir); err != nil {
		return nil, fmt.Errorf("init storage dir: %w", err)
	}
	return &file{store: store}, nil
}

func (f *file) Has(ctx context.Context, key string) (bool, error) {
	return f.store.Has(ctx, key)
}

func (f *file) Put(ctx context.Context, key string, content []byte) error {
	return f.store.Put(ctx, key, content)
}

func (f *file) Get(ctx context.Context, key string) ([]byte, error) {
	return Read(ctx, f.store, key)
}

func (f *file) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	ok, err := f.store.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(key)
	}
	return f.store.GetStream(ctx, key)
}
