package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a Backend when a key has never been written
// or has been deleted.
var ErrKeyNotFound = errors.New("store: key not found")

// Backend is a flat key-value blob store. Values are UTF-8 encoded text.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}
