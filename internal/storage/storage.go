package storage

import (
	"context"
	"time"
)

// BlobStore persists opaque asset bytes under caller-chosen keys and hands
// out time-limited retrieval URLs. Writing the same key twice overwrites the
// previous object.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
