package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
)

type webhookRepository struct {
	db *sqlx.DB
}

func newWebhookRepository(db *sqlx.DB) *webhookRepository {
	return &webhookRepository{
		db: db,
	}
}

func (r *webhookRepository) Create(ctx context.Context, subscription *domain.WebhookSubscription) error {
	const op = "repository.webhook.Create"

	const query = `
    INSERT INTO webhook_subscriptions (id, api_key_id, event_types, url, secret)
    VALUES (uuid_to_bin(:id), uuid_to_bin(:api_key_id), :event_types, :url, :secret)
    `

	res, err := r.db.NamedExecContext(ctx, query, subscription)
	if err != nil {
		return fmt.Errorf("%s: insert webhook subscription failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows != 1 {
		return fmt.Errorf("%s: expected 1 row affected, got %d", op, rows)
	}

	return nil
}

func (r *webhookRepository) GetOneByID(ctx context.Context, id uuid.UUID) (*domain.WebhookSubscription, error) {
	const op = "repository.webhook.GetOneByID"

	const query = `
    SELECT bin_to_uuid(id) AS id, bin_to_uuid(api_key_id) AS api_key_id, event_types, url, secret, created_at
    FROM webhook_subscriptions
    WHERE id = uuid_to_bin(?)
    `

	var subscription domain.WebhookSubscription
	if err := r.db.GetContext(ctx, &subscription, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select webhook subscription failed: %w", op, err)
	}

	return &subscription, nil
}

func (r *webhookRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	const op = "repository.webhook.DeleteByID"

	const query = `
    DELETE FROM webhook_subscriptions
    WHERE id = uuid_to_bin(?)
    `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: delete webhook subscription failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}

func (r *webhookRepository) ListByEvent(ctx context.Context, event string) ([]domain.WebhookSubscription, error) {
	const op = "repository.webhook.ListByEvent"

	const query = `
    SELECT bin_to_uuid(id) AS id, bin_to_uuid(api_key_id) AS api_key_id, event_types, url, secret, created_at
    FROM webhook_subscriptions
    WHERE FIND_IN_SET(?, event_types) > 0
    `

	var subscriptions []domain.WebhookSubscription
	if err := r.db.SelectContext(ctx, &subscriptions, query, event); err != nil {
		return nil, fmt.Errorf("%s: select webhook subscriptions failed: %w", op, err)
	}

	return subscriptions, nil
}
