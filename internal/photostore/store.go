// Package photostore resolves case photo references to image bytes.
package photostore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a photo key resolves to nothing.
var ErrNotFound = errors.New("photo not found")

// Store is the photo-storage boundary. Resolve is the hot path, used by
// matching sweeps; Put serves the case submission flow.
type Store interface {
	Resolve(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
