package worker

import (
	"context"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
)

type Workers struct {
	WebhookSender WebhookSender
}

type Deps struct {
	Config *config.Config
}

type WebhookSender interface {
	Deliver(ctx context.Context, data task.DeliverWebhook) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		WebhookSender: newWebhookSender(deps.Config.Webhook),
	}
}
