package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
)

type apiKeyRepository struct {
	db *sqlx.DB
}

func newAPIKeyRepository(db *sqlx.DB) *apiKeyRepository {
	return &apiKeyRepository{
		db: db,
	}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	const op = "repository.apiKey.Create"

	const query = `
    INSERT INTO api_keys (id, user_id, key_hash, rate_limit)
    VALUES (uuid_to_bin(:id), :user_id, :key_hash, :rate_limit)
    `

	res, err := r.db.NamedExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("%s: insert api key failed: %w", op, err)
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

func (r *apiKeyRepository) GetByKeyHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	const op = "repository.apiKey.GetByKeyHash"

	const query = `
    SELECT bin_to_uuid(id) AS id, user_id, key_hash, rate_limit, created_at
    FROM api_keys
    WHERE key_hash = ?
    `

	var key domain.APIKey
	if err := r.db.GetContext(ctx, &key, query, keyHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select api key failed: %w", op, err)
	}

	return &key, nil
}
