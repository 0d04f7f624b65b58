package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

const (
	headerSignature = "X-Webhook-Signature"
	headerTimestamp = "X-Webhook-Timestamp"
	userAgent       = "SybilShield-Webhook/1.0"
)

// webhookPayload is the wire shape delivered to subscribers. The signature,
// when present, covers exactly these serialized bytes.
type webhookPayload struct {
	Event          string `json:"event"`
	VerificationID string `json:"verification_id"`
	Address        string `json:"address"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
}

type webhookSender struct {
	httpClient *http.Client
	config     config.WebhookConfig
}

func newWebhookSender(cfg config.WebhookConfig) *webhookSender {
	return &webhookSender{
		httpClient: &http.Client{
			Timeout: cfg.AttemptTimeout,
		},
		config: cfg,
	}
}

// Deliver posts one notification. Transport failures and 5xx answers are
// returned as retryable errors; permanent rejections short-circuit the retry
// schedule via asynq.SkipRetry. 429 stays retryable.
func (s *webhookSender) Deliver(ctx context.Context, data task.DeliverWebhook) error {
	payload := webhookPayload{
		Event:          data.Event,
		VerificationID: data.VerificationID,
		Address:        data.Address,
		Status:         data.Status,
		Timestamp:      data.Timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal webhook payload failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, data.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(asynq.SkipRetry, "build webhook request for %s failed: %v", data.URL, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerTimestamp, strconv.FormatInt(time.Now().Unix(), 10))

	if data.Secret != "" {
		req.Header.Set(headerSignature, Sign(data.Secret, body))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post webhook to %s failed", data.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusBadRequest {
		logger.Info("webhook delivered",
			zap.String("url", data.URL),
			zap.String("event", data.Event),
			zap.Int("status_code", resp.StatusCode))
		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError &&
		resp.StatusCode != http.StatusTooManyRequests {
		logger.Warn("webhook rejected, not retrying",
			zap.String("url", data.URL),
			zap.Int("status_code", resp.StatusCode))
		return errors.Wrapf(asynq.SkipRetry, "webhook to %s rejected with status %d", data.URL, resp.StatusCode)
	}

	return errors.Errorf("webhook to %s failed with status %d", data.URL, resp.StatusCode)
}

// Sign computes the hex HMAC-SHA256 of body under secret. Subscribers verify
// the X-Webhook-Signature header with the same construction.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
