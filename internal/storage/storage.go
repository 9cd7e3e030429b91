package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get when no blob is stored under the key.
var ErrNotExist = errors.New("blob does not exist")

// BlobStore is a content-addressed binary store. Keys are flat names
// generated by NewKey / ProcessedKey; implementations must never let two
// writers under different keys interfere.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
