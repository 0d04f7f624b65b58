package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/repository"
	"github.com/mrarejimmyz/SybilShield/pkg/hash"
)

type apiKeyService struct {
	repo   repository.APIKeys
	hasher hash.KeyHasher
	config config.AuthConfig
}

func newAPIKeyService(repo repository.APIKeys, hasher hash.KeyHasher, cfg config.AuthConfig) *apiKeyService {
	return &apiKeyService{repo: repo, hasher: hasher, config: cfg}
}

// Create issues a new API key for userID. The raw key is returned to the
// caller once and never stored.
func (s *apiKeyService) Create(ctx context.Context, userID string, rateLimit int) (string, *domain.APIKey, error) {
	const op = "service.apikey.Create"

	if !validUserID(userID) {
		return "", nil, ErrInvalidUserID
	}

	if rateLimit == 0 {
		rateLimit = s.config.DefaultRateLimit
	}
	if rateLimit < 1 || rateLimit > s.config.MaxRateLimit {
		return "", nil, ErrInvalidRateLimit
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", nil, errors.Wrap(err, op)
	}

	rawKey := "ask_" + strings.ReplaceAll(uuid.New().String(), "-", "")

	keyHash, err := s.hasher.Hash(rawKey)
	if err != nil {
		return "", nil, errors.Wrap(err, op)
	}

	key := &domain.APIKey{
		ID:        id,
		UserID:    userID,
		KeyHash:   keyHash,
		RateLimit: rateLimit,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, key); err != nil {
		return "", nil, errors.Wrap(err, op)
	}

	return rawKey, key, nil
}

// Validate resolves a raw key presented by a caller to its stored record.
func (s *apiKeyService) Validate(ctx context.Context, rawKey string) (*domain.APIKey, error) {
	const op = "service.apikey.Validate"

	if rawKey == "" {
		return nil, ErrInvalidAPIKey
	}

	keyHash, err := s.hasher.Hash(rawKey)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	key, err := s.repo.GetByKeyHash(ctx, keyHash)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, errors.Wrap(err, op)
	}

	return key, nil
}

func validUserID(userID string) bool {
	if len(userID) < 3 || len(userID) > 50 {
		return false
	}
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
