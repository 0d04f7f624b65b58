package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	DeliverWebhookTaskName  = "deliverWebhookTask"
	DeliverWebhookQueueName = "deliverWebhookQueue"
)

// DeliverWebhook carries one outbound notification to one target URL.
type DeliverWebhook struct {
	URL            string `json:"url"`
	Secret         string `json:"secret,omitempty"`
	Event          string `json:"event"`
	VerificationID string `json:"verification_id"`
	Address        string `json:"address"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
}

func NewDeliverWebhookTask(data DeliverWebhook, maxRetries int, attemptTimeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		DeliverWebhookTaskName,
		payload,
		asynq.MaxRetry(maxRetries),
		asynq.Queue(DeliverWebhookQueueName),
		asynq.Timeout(attemptTimeout),
	), nil
}
