package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
)

type Repositories struct {
	APIKeys  APIKeys
	Webhooks Webhooks
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		APIKeys:  newAPIKeyRepository(db),
		Webhooks: newWebhookRepository(db),
	}
}

type APIKeys interface {
	Create(ctx context.Context, key *domain.APIKey) error
	GetByKeyHash(ctx context.Context, keyHash string) (*domain.APIKey, error)
}

type Webhooks interface {
	Create(ctx context.Context, subscription *domain.WebhookSubscription) error
	GetOneByID(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, event string) ([]domain.WebhookSubscription, error)
}
