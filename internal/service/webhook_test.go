package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
)

func TestWebhookSubscribe(t *testing.T) {
	repo := &stubWebhookRepo{}
	svc := newWebhookService(repo)
	keyID := uuid.New()

	sub, err := svc.Subscribe(context.Background(), keyID,
		[]string{domain.EventVerificationComplete, domain.EventSybilDetected},
		"https://hooks.example.com/x", "sekrit")
	require.NoError(t, err)

	assert.Equal(t, keyID, sub.APIKeyID)
	assert.Equal(t, "verification_complete,sybil_detected", sub.EventTypes)
	assert.True(t, sub.SubscribedTo(domain.EventSybilDetected))
	require.Len(t, repo.subscriptions, 1)
}

func TestWebhookSubscribeValidation(t *testing.T) {
	svc := newWebhookService(&stubWebhookRepo{})
	ctx := context.Background()
	keyID := uuid.New()

	_, err := svc.Subscribe(ctx, keyID, nil, "https://hooks.example.com/x", "")
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = svc.Subscribe(ctx, keyID, []string{"no_such_event"}, "https://hooks.example.com/x", "")
	assert.ErrorIs(t, err, ErrUnknownEventType)

	_, err = svc.Subscribe(ctx, keyID, []string{domain.EventSybilDetected}, "ftp://hooks.example.com/x", "")
	assert.ErrorIs(t, err, ErrInvalidWebhookURL)
}

func TestWebhookUnsubscribe(t *testing.T) {
	repo := &stubWebhookRepo{}
	svc := newWebhookService(repo)
	ctx := context.Background()
	keyID := uuid.New()

	sub, err := svc.Subscribe(ctx, keyID, []string{domain.EventVerificationComplete},
		"https://hooks.example.com/x", "")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, keyID, sub.ID))
	assert.Empty(t, repo.subscriptions)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, keyID, sub.ID), domain.ErrNotFound)
}

func TestWebhookUnsubscribeOwnership(t *testing.T) {
	repo := &stubWebhookRepo{}
	svc := newWebhookService(repo)
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, uuid.New(), []string{domain.EventVerificationComplete},
		"https://hooks.example.com/x", "")
	require.NoError(t, err)

	err = svc.Unsubscribe(ctx, uuid.New(), sub.ID)
	assert.ErrorIs(t, err, ErrNotSubscriptionOwner)
	assert.Len(t, repo.subscriptions, 1)
}
