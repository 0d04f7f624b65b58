package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey identifies one gateway caller. The raw key is returned exactly once
// at creation; only the salted hash is stored.
type APIKey struct {
	ID        uuid.UUID `db:"id"`
	UserID    string    `db:"user_id"`
	KeyHash   string    `db:"key_hash"`
	RateLimit int       `db:"rate_limit"`
	CreatedAt time.Time `db:"created_at"`
}
