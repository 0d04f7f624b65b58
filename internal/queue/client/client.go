package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/queue/task"
)

type ctxKey int

const (
	_ ctxKey = iota
	asyncQCtxKey
)

var (
	globalClient *asynq.Client
	globalMu     sync.RWMutex
)

// GetClient returns the global Client, which can be reconfigured with SetClient.
// It's safe for concurrent use.
func GetClient(ctx context.Context) *asynq.Client {
	c := ctx.Value(asyncQCtxKey)
	if c != nil {
		client, ok := c.(*asynq.Client)
		if !ok {
			return nil
		}

		return client
	}

	globalMu.RLock()
	client := globalClient
	globalMu.RUnlock()

	return client
}

// SetClient replaces the global Client, and returns a
// function to restore the original value. It's safe for concurrent use.
func SetClient(client *asynq.Client) func() {
	globalMu.Lock()
	prev := globalClient
	globalClient = client
	globalMu.Unlock()
	return func() { SetClient(prev) }
}

// Notifier enqueues webhook deliveries on the task queue. It satisfies the
// service layer's notifier contract.
type Notifier struct {
	config config.WebhookConfig
}

func NewNotifier(cfg config.WebhookConfig) *Notifier {
	return &Notifier{config: cfg}
}

func (n *Notifier) Notify(ctx context.Context, data task.DeliverWebhook) error {
	queueClient := GetClient(ctx)
	if queueClient == nil {
		return errors.New("queue client is not configured")
	}

	t, err := task.NewDeliverWebhookTask(data, n.config.MaxRetries, n.config.AttemptTimeout)
	if err != nil {
		return fmt.Errorf("build deliver webhook task failed: %w", err)
	}

	if _, err := queueClient.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue deliver webhook task failed: %w", err)
	}

	return nil
}
