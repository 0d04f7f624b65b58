package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/pkg/hash"
)

type stubAPIKeyRepo struct {
	keys []domain.APIKey
}

func (r *stubAPIKeyRepo) Create(_ context.Context, key *domain.APIKey) error {
	r.keys = append(r.keys, *key)
	return nil
}

func (r *stubAPIKeyRepo) GetByKeyHash(_ context.Context, keyHash string) (*domain.APIKey, error) {
	for i := range r.keys {
		if r.keys[i].KeyHash == keyHash {
			key := r.keys[i]
			return &key, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestAPIKeyService() (*apiKeyService, *stubAPIKeyRepo) {
	repo := &stubAPIKeyRepo{}
	svc := newAPIKeyService(repo, hash.NewSHA256Hasher("salt"), config.AuthConfig{
		APIKeySalt:       "salt",
		DefaultRateLimit: 100,
		MaxRateLimit:     1000,
	})
	return svc, repo
}

func TestAPIKeyCreate(t *testing.T) {
	svc, repo := newTestAPIKeyService()

	rawKey, key, err := svc.Create(context.Background(), "user_1", 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "ask_"))
	assert.Len(t, rawKey, len("ask_")+32)
	assert.Equal(t, "user_1", key.UserID)
	assert.Equal(t, 100, key.RateLimit)
	assert.NotEqual(t, rawKey, key.KeyHash)
	require.Len(t, repo.keys, 1)
	assert.Equal(t, key.KeyHash, repo.keys[0].KeyHash)
}

func TestAPIKeyCreateValidation(t *testing.T) {
	svc, _ := newTestAPIKeyService()
	ctx := context.Background()

	_, _, err := svc.Create(ctx, "ab", 0)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, _, err = svc.Create(ctx, strings.Repeat("a", 51), 0)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, _, err = svc.Create(ctx, "user one", 0)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, _, err = svc.Create(ctx, "user_1", -1)
	assert.ErrorIs(t, err, ErrInvalidRateLimit)

	_, _, err = svc.Create(ctx, "user_1", 1001)
	assert.ErrorIs(t, err, ErrInvalidRateLimit)
}

func TestAPIKeyValidate(t *testing.T) {
	svc, _ := newTestAPIKeyService()
	ctx := context.Background()

	rawKey, created, err := svc.Create(ctx, "user_1", 250)
	require.NoError(t, err)

	key, err := svc.Validate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, created.ID, key.ID)
	assert.Equal(t, 250, key.RateLimit)

	_, err = svc.Validate(ctx, "ask_deadbeef")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = svc.Validate(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
