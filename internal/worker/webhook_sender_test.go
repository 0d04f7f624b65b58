package worker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
)

func testSender() *webhookSender {
	return newWebhookSender(config.WebhookConfig{
		MaxRetries:     3,
		AttemptTimeout: 2 * time.Second,
	})
}

func sampleDelivery(url, secret string) task.DeliverWebhook {
	return task.DeliverWebhook{
		URL:            url,
		Secret:         secret,
		Event:          "verification_complete",
		VerificationID: "social_twitter_0xabc_1700000000_deadbeef",
		Address:        "0xabc0000000000000",
		Status:         "verified",
		Timestamp:      "2026-08-29T12:00:00Z",
	}
}

func TestDeliverPostsSignedPayload(t *testing.T) {
	var (
		gotBody      []byte
		gotSignature string
		gotTimestamp string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get("X-Webhook-Signature")
		gotTimestamp = r.Header.Get("X-Webhook-Timestamp")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testSender().Deliver(context.Background(), sampleDelivery(srv.URL, "topsecret"))
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "verification_complete", payload["event"])
	assert.Equal(t, "verified", payload["status"])
	assert.NotContains(t, payload, "secret", "the secret never travels in the body")

	assert.Equal(t, Sign("topsecret", gotBody), gotSignature)
	assert.NotEmpty(t, gotTimestamp)
}

func TestDeliverWithoutSecretOmitsSignature(t *testing.T) {
	var signaturePresent bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signaturePresent = r.Header["X-Webhook-Signature"]
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := testSender().Deliver(context.Background(), sampleDelivery(srv.URL, ""))
	require.NoError(t, err)
	assert.False(t, signaturePresent)
}

func TestDeliverServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testSender().Deliver(context.Background(), sampleDelivery(srv.URL, ""))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliverClientErrorSkipsRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	err := testSender().Deliver(context.Background(), sampleDelivery(srv.URL, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliverTooManyRequestsStaysRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := testSender().Deliver(context.Background(), sampleDelivery(srv.URL, ""))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestDeliverUnreachableTargetIsRetryable(t *testing.T) {
	err := testSender().Deliver(context.Background(), sampleDelivery("http://127.0.0.1:1/webhook", ""))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
