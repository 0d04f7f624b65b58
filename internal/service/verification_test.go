package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/internal/store"
	"github.com/mrarejimmyz/SybilShield/internal/verification"
)

type capturingNotifier struct {
	deliveries []task.DeliverWebhook
}

func (n *capturingNotifier) Notify(_ context.Context, data task.DeliverWebhook) error {
	n.deliveries = append(n.deliveries, data)
	return nil
}

type stubWebhookRepo struct {
	subscriptions []domain.WebhookSubscription
}

func (r *stubWebhookRepo) Create(_ context.Context, sub *domain.WebhookSubscription) error {
	r.subscriptions = append(r.subscriptions, *sub)
	return nil
}

func (r *stubWebhookRepo) GetOneByID(_ context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	for i := range r.subscriptions {
		if r.subscriptions[i].ID == id {
			sub := r.subscriptions[i]
			return &sub, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubWebhookRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	for i := range r.subscriptions {
		if r.subscriptions[i].ID == id {
			r.subscriptions = append(r.subscriptions[:i], r.subscriptions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNoRowsAffected
}

func (r *stubWebhookRepo) ListByEvent(_ context.Context, event string) ([]domain.WebhookSubscription, error) {
	var out []domain.WebhookSubscription
	for _, sub := range r.subscriptions {
		if sub.SubscribedTo(event) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func newTestVerificationService(t *testing.T) (*verificationService, *capturingNotifier, *stubWebhookRepo) {
	t.Helper()

	st := store.NewMemory()
	manager := verification.NewManager(st, time.Hour, zap.NewNop())
	manager.Register(verification.NewSocial("twitter", st, time.Hour, nil))

	notifier := &capturingNotifier{}
	repo := &stubWebhookRepo{}

	return newVerificationService(manager, repo, notifier, zap.NewNop()), notifier, repo
}

func socialProof(t *testing.T, url string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"url": url})
	require.NoError(t, err)
	return raw
}

func TestVerificationCompleteNotifiesCallback(t *testing.T) {
	svc, notifier, _ := newTestVerificationService(t)
	ctx := context.Background()

	record, err := svc.Start(ctx, domain.MethodSocialTwitter, "0xabc", "https://example.com/callback")
	require.NoError(t, err)

	settled, err := svc.Complete(ctx, record.ID, socialProof(t, "https://twitter.com/u/status/1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, settled.Status)

	require.Len(t, notifier.deliveries, 1)
	delivery := notifier.deliveries[0]
	assert.Equal(t, "https://example.com/callback", delivery.URL)
	assert.Equal(t, domain.EventVerificationComplete, delivery.Event)
	assert.Equal(t, record.ID, delivery.VerificationID)
	assert.Equal(t, "0xabc", delivery.Address)
	assert.Equal(t, string(domain.StatusVerified), delivery.Status)
}

func TestVerificationCompleteNotifiesSubscriptions(t *testing.T) {
	svc, notifier, repo := newTestVerificationService(t)
	ctx := context.Background()

	repo.subscriptions = []domain.WebhookSubscription{
		{
			ID:         uuid.New(),
			EventTypes: domain.EventVerificationComplete,
			URL:        "https://hooks.example.com/a",
			Secret:     "sekrit",
		},
		{
			ID:         uuid.New(),
			EventTypes: domain.EventSybilDetected,
			URL:        "https://hooks.example.com/b",
		},
	}

	record, err := svc.Start(ctx, domain.MethodSocialTwitter, "0xabc", "")
	require.NoError(t, err)

	_, err = svc.Complete(ctx, record.ID, socialProof(t, "https://twitter.com/u/status/1"))
	require.NoError(t, err)

	// Only the subscription for the completion event is notified.
	require.Len(t, notifier.deliveries, 1)
	assert.Equal(t, "https://hooks.example.com/a", notifier.deliveries[0].URL)
	assert.Equal(t, "sekrit", notifier.deliveries[0].Secret)
}

func TestVerificationCompleteReplayStaysSilent(t *testing.T) {
	svc, notifier, _ := newTestVerificationService(t)
	ctx := context.Background()

	record, err := svc.Start(ctx, domain.MethodSocialTwitter, "0xabc", "https://example.com/callback")
	require.NoError(t, err)

	proof := socialProof(t, "https://twitter.com/u/status/1")
	_, err = svc.Complete(ctx, record.ID, proof)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, record.ID, proof)
	require.NoError(t, err)

	assert.Len(t, notifier.deliveries, 1)
}

func TestVerificationCompleteUnknownID(t *testing.T) {
	svc, notifier, _ := newTestVerificationService(t)

	_, err := svc.Complete(context.Background(), "social_twitter_0xabc_0_deadbeef", socialProof(t, "u"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, notifier.deliveries)
}

func TestVerificationMethods(t *testing.T) {
	svc, _, _ := newTestVerificationService(t)

	assert.Contains(t, svc.Methods(), domain.MethodSocialTwitter)
}
