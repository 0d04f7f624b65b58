package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/internal/repository"
	"github.com/mrarejimmyz/SybilShield/internal/verification"
)

type verificationService struct {
	manager  *verification.Manager
	webhooks repository.Webhooks
	notifier WebhookNotifier
	logger   *zap.Logger
}

func newVerificationService(
	manager *verification.Manager,
	webhooks repository.Webhooks,
	notifier WebhookNotifier,
	logger *zap.Logger,
) *verificationService {
	return &verificationService{
		manager:  manager,
		webhooks: webhooks,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *verificationService) Start(ctx context.Context, kind domain.MethodKind, address, callbackURL string) (*domain.VerificationRecord, error) {
	return s.manager.Start(ctx, kind, address, callbackURL)
}

func (s *verificationService) Check(ctx context.Context, verificationID string) (*domain.VerificationRecord, error) {
	return s.manager.Check(ctx, verificationID)
}

func (s *verificationService) Complete(ctx context.Context, verificationID string, proof json.RawMessage) (*domain.VerificationRecord, error) {
	prior, err := s.manager.Check(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	record, err := s.manager.Complete(ctx, verificationID, proof)
	if err != nil {
		return nil, err
	}

	// Notify only on the pending -> settled transition. Replays of an
	// already settled verification stay silent.
	if !prior.Status.Terminal() && record.Status.Terminal() {
		s.dispatch(ctx, record)
	}

	return record, nil
}

func (s *verificationService) History(ctx context.Context, address string) ([]domain.VerificationRecord, error) {
	return s.manager.History(ctx, address)
}

func (s *verificationService) Methods() []domain.MethodKind {
	return s.manager.Kinds()
}

// dispatch fans a settled verification out to the record's callback URL and
// every subscription registered for the completion event. Enqueue failures
// are logged and swallowed so a broken queue never fails the completion.
func (s *verificationService) dispatch(ctx context.Context, record *domain.VerificationRecord) {
	type target struct {
		url    string
		secret string
	}

	var targets []target
	if record.CallbackURL != "" {
		targets = append(targets, target{url: record.CallbackURL})
	}

	subs, err := s.webhooks.ListByEvent(ctx, domain.EventVerificationComplete)
	if err != nil {
		s.logger.Error("listing webhook subscriptions failed",
			zap.String("verification_id", record.ID),
			zap.Error(err),
		)
	}
	for _, sub := range subs {
		targets = append(targets, target{url: sub.URL, secret: sub.Secret})
	}

	settledAt := record.CreatedAt
	if record.VerifiedAt != nil {
		settledAt = *record.VerifiedAt
	}

	for _, t := range targets {
		data := task.DeliverWebhook{
			URL:            t.url,
			Secret:         t.secret,
			Event:          domain.EventVerificationComplete,
			VerificationID: record.ID,
			Address:        record.Address,
			Status:         string(record.Status),
			Timestamp:      settledAt.UTC().Format(time.RFC3339),
		}

		if err := s.notifier.Notify(ctx, data); err != nil {
			s.logger.Error("enqueueing webhook delivery failed",
				zap.String("verification_id", record.ID),
				zap.String("url", t.url),
				zap.Error(err),
			)
		}
	}
}
