package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or its TTL elapsed.
var ErrNotFound = errors.New("key not found")

// ErrUnavailable wraps infrastructure failures of the backing store. Callers
// treat it as retryable and must not fold it into a domain outcome.
var ErrUnavailable = errors.New("store unavailable")

// Store is the key-value collaborator shared by the token bucket and the
// verification manager. Implementations must bound latency on every call;
// a ttl of zero means no expiration.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
