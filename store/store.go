// Package store implements whole-document persistence for the service's two
// flat collections: users and history.  Every mutation is a read-entire-
// collection, mutate, write-entire-collection sequence serialized under a
// per-collection mutex, so concurrent mutations cannot lose updates while the
// on-disk format stays a single human-readable JSON document.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/brightroom/brightroom/errors"
)

// Collection is a named JSON document on disk holding a whole collection of
// type T.  A missing file loads as the empty value — never an error.
type Collection[T any] struct {
	mu    sync.Mutex
	path  string
	empty func() T
}

// NewCollection creates a collection persisted at path.  empty produces the
// default value returned before the first save.
func NewCollection[T any](path string, empty func() T) (*Collection[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryStorage, "collection.mkdir", err)
	}
	return &Collection[T]{path: path, empty: empty}, nil
}

// Load reads the full collection from disk.
func (c *Collection[T]) Load(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Save writes the full collection to disk, replacing the previous document.
func (c *Collection[T]) Save(ctx context.Context, v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, v)
}

// Update runs fn on the current collection value and persists the result.
// The whole read-modify-write sequence holds the collection mutex, so two
// concurrent updates cannot overwrite each other's changes.  When fn returns
// an error, nothing is written.
func (c *Collection[T]) Update(ctx context.Context, fn func(T) (T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return c.save(ctx, next)
}

func (c *Collection[T]) load(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, apperrors.Wrap(apperrors.CategoryStorage, "collection.load", err)
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c.empty(), nil
		}
		return zero, apperrors.Wrap(apperrors.CategoryStorage, "collection.load", err)
	}

	v := c.empty()
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, apperrors.Wrap(apperrors.CategoryStorage, "collection.decode", err)
	}
	return v, nil
}

func (c *Collection[T]) save(ctx context.Context, v T) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "collection.save", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "collection.encode", err)
	}

	// Write via a temp file + rename so a crash mid-write never leaves a
	// truncated document behind.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "collection.save", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "collection.save.rename", err)
	}
	return nil
}
