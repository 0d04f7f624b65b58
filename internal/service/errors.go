package service

import "errors"

var (
	ErrInvalidUserID        = errors.New("user id must be 3-50 alphanumeric characters")
	ErrInvalidRateLimit     = errors.New("rate limit out of range")
	ErrInvalidAPIKey        = errors.New("invalid api key")
	ErrNoAddresses          = errors.New("at least one address is required")
	ErrBatchTooLarge        = errors.New("batch exceeds the maximum number of addresses")
	ErrUnknownEventType     = errors.New("unknown webhook event type")
	ErrInvalidWebhookURL    = errors.New("webhook url must be an http or https endpoint")
	ErrNotSubscriptionOwner = errors.New("subscription belongs to a different api key")
)
