package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/internal/repository"
	"github.com/mrarejimmyz/SybilShield/internal/store"
	"github.com/mrarejimmyz/SybilShield/internal/verification"
	"github.com/mrarejimmyz/SybilShield/pkg/hash"
)

type Services struct {
	Sybil         Sybil
	Verifications Verifications
	APIKeys       APIKeys
	Webhooks      Webhooks
}

type Deps struct {
	Config   *config.Config
	Store    store.Store
	Manager  *verification.Manager
	Repos    *repository.Repositories
	Hasher   hash.KeyHasher
	Notifier WebhookNotifier
	Logger   *zap.Logger
}

func NewServices(deps Deps) *Services {
	return &Services{
		Sybil: newSybilService(deps.Store, deps.Config.Sybil),
		Verifications: newVerificationService(deps.Manager,
			deps.Repos.Webhooks,
			deps.Notifier,
			deps.Logger,
		),
		APIKeys:  newAPIKeyService(deps.Repos.APIKeys, deps.Hasher, deps.Config.Auth),
		Webhooks: newWebhookService(deps.Repos.Webhooks),
	}
}

type Sybil interface {
	Check(ctx context.Context, address string, threshold int) (*domain.SybilCheckResult, error)
	BatchCheck(ctx context.Context, addresses []string, threshold int) (*domain.BatchCheckResult, error)
	GetResult(ctx context.Context, requestID string) (json.RawMessage, error)
	Features(ctx context.Context, address string) (*domain.FeatureSet, error)
}

type Verifications interface {
	Start(ctx context.Context, kind domain.MethodKind, address, callbackURL string) (*domain.VerificationRecord, error)
	Check(ctx context.Context, verificationID string) (*domain.VerificationRecord, error)
	Complete(ctx context.Context, verificationID string, proof json.RawMessage) (*domain.VerificationRecord, error)
	History(ctx context.Context, address string) ([]domain.VerificationRecord, error)
	Methods() []domain.MethodKind
}

type APIKeys interface {
	Create(ctx context.Context, userID string, rateLimit int) (string, *domain.APIKey, error)
	Validate(ctx context.Context, rawKey string) (*domain.APIKey, error)
}

type Webhooks interface {
	Subscribe(ctx context.Context, apiKeyID uuid.UUID, eventTypes []string, url, secret string) (*domain.WebhookSubscription, error)
	Unsubscribe(ctx context.Context, apiKeyID, subscriptionID uuid.UUID) error
}

// WebhookNotifier hands completed-verification notifications to the delivery
// queue. Implemented by the queue client; stubbed in tests.
type WebhookNotifier interface {
	Notify(ctx context.Context, data task.DeliverWebhook) error
}
