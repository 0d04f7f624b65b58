package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mrarejimmyz/SybilShield/internal/store"
)

const keyPrefix = "ratelimit:"

var (
	ErrEmptyKey      = errors.New("limiter: empty bucket key")
	ErrInvalidCost   = errors.New("limiter: cost must be >= 0")
	ErrInvalidRate   = errors.New("limiter: rate must be > 0")
	ErrInvalidBounds = errors.New("limiter: capacity must be > 0")
)

type bucket struct {
	Tokens     float64 `json:"tokens"`
	LastRefill float64 `json:"last_refill"`
}

// TokenBucket enforces per-key quotas with a continuous-refill token bucket
// persisted in the shared store. The read-modify-write cycle for a key is
// guarded by a per-key mutex; distinct keys proceed independently.
type TokenBucket struct {
	store store.Store
	locks *store.KeyMutex
	now   func() time.Time
}

func NewTokenBucket(st store.Store) *TokenBucket {
	return &TokenBucket{
		store: st,
		locks: store.NewKeyMutex(),
		now:   time.Now,
	}
}

// SetClock replaces the wall clock for tests.
func (b *TokenBucket) SetClock(now func() time.Time) {
	b.now = now
}

// Consume admits or denies one request of the given cost against the bucket
// for key. Denial is a normal outcome, reported as (false, nil); only store
// failures surface as errors. Rate is tokens per second.
func (b *TokenBucket) Consume(ctx context.Context, key string, cost, rate, capacity float64) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if cost < 0 {
		return false, ErrInvalidCost
	}
	if rate <= 0 {
		return false, ErrInvalidRate
	}
	if capacity <= 0 {
		return false, ErrInvalidBounds
	}

	storeKey := keyPrefix + key

	b.locks.Lock(storeKey)
	defer b.locks.Unlock(storeKey)

	now := float64(b.now().UnixNano()) / float64(time.Second)

	state := bucket{Tokens: capacity, LastRefill: now}

	raw, err := b.store.Get(ctx, storeKey)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &state); err != nil {
			return false, fmt.Errorf("decode bucket %q failed: %w", key, err)
		}
		elapsed := now - state.LastRefill
		if elapsed < 0 {
			elapsed = 0
		}
		state.Tokens = min(capacity, state.Tokens+elapsed*rate)
		state.LastRefill = now
	case errors.Is(err, store.ErrNotFound):
		// fresh bucket, already at capacity
	default:
		return false, fmt.Errorf("fetch bucket %q failed: %w", key, err)
	}

	admitted := state.Tokens >= cost
	if admitted {
		state.Tokens -= cost
	}

	// An idle bucket refills to capacity within capacity/rate seconds, so a
	// stale entry carries no information beyond that horizon.
	ttl := time.Duration(2 * capacity / rate * float64(time.Second))

	encoded, err := json.Marshal(state)
	if err != nil {
		return false, fmt.Errorf("encode bucket %q failed: %w", key, err)
	}
	if err := b.store.Set(ctx, storeKey, encoded, ttl); err != nil {
		return false, fmt.Errorf("persist bucket %q failed: %w", key, err)
	}

	return admitted, nil
}
