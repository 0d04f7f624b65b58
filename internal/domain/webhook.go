package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Webhook event types callers may subscribe to.
const (
	EventVerificationComplete = "verification_complete"
	EventSybilDetected        = "sybil_detected"
	EventRiskScoreChange      = "risk_score_change"
)

// ValidEventType reports whether t is a known webhook event type.
func ValidEventType(t string) bool {
	switch t {
	case EventVerificationComplete, EventSybilDetected, EventRiskScoreChange:
		return true
	}
	return false
}

// WebhookSubscription is a standing delivery target owned by one API key.
// EventTypes is stored comma-joined in a single column.
type WebhookSubscription struct {
	ID         uuid.UUID `db:"id"`
	APIKeyID   uuid.UUID `db:"api_key_id"`
	EventTypes string    `db:"event_types"`
	URL        string    `db:"url"`
	Secret     string    `db:"secret"`
	CreatedAt  time.Time `db:"created_at"`
}

func (w *WebhookSubscription) Events() []string {
	if w.EventTypes == "" {
		return nil
	}
	return strings.Split(w.EventTypes, ",")
}

func (w *WebhookSubscription) SubscribedTo(event string) bool {
	for _, e := range w.Events() {
		if e == event {
			return true
		}
	}
	return false
}
