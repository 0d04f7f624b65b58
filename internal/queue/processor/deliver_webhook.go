package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
	"github.com/mrarejimmyz/SybilShield/internal/worker"
)

type deliverWebhookProcessor struct {
	workers *worker.Workers
}

func NewDeliverWebhookProcessor(workers *worker.Workers) *deliverWebhookProcessor {
	return &deliverWebhookProcessor{
		workers: workers,
	}
}

func (p *deliverWebhookProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.DeliverWebhook
	err := json.Unmarshal(t.Payload(), &data)
	if err != nil {
		return fmt.Errorf("process deliver webhook task json unmarshal failed: %w", err)
	}

	if err = p.workers.WebhookSender.Deliver(ctx, data); err != nil {
		return fmt.Errorf("deliver webhook failed: %w", err)
	}

	return nil
}
