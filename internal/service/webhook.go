package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/repository"
)

type webhookService struct {
	repo repository.Webhooks
}

func newWebhookService(repo repository.Webhooks) *webhookService {
	return &webhookService{repo: repo}
}

func (s *webhookService) Subscribe(ctx context.Context, apiKeyID uuid.UUID, eventTypes []string, url, secret string) (*domain.WebhookSubscription, error) {
	const op = "service.webhook.Subscribe"

	if len(eventTypes) == 0 {
		return nil, ErrUnknownEventType
	}
	for _, t := range eventTypes {
		if !domain.ValidEventType(t) {
			return nil, ErrUnknownEventType
		}
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, ErrInvalidWebhookURL
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	sub := &domain.WebhookSubscription{
		ID:         id,
		APIKeyID:   apiKeyID,
		EventTypes: strings.Join(eventTypes, ","),
		URL:        url,
		Secret:     secret,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, errors.Wrap(err, op)
	}

	return sub, nil
}

func (s *webhookService) Unsubscribe(ctx context.Context, apiKeyID, subscriptionID uuid.UUID) error {
	const op = "service.webhook.Unsubscribe"

	sub, err := s.repo.GetOneByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return errors.Wrap(err, op)
	}

	if sub.APIKeyID != apiKeyID {
		return ErrNotSubscriptionOwner
	}

	if err := s.repo.DeleteByID(ctx, subscriptionID); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}
