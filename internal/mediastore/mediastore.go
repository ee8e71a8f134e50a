package mediastore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open and Delete for keys that have no object.
var ErrNotFound = errors.New("media not found")

// MediaStore keeps uploaded recipe images. Keys are opaque to callers.
type MediaStore interface {
	Save(ctx context.Context, mimeType string, r io.Reader) (key string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
