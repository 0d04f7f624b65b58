package domain

import "time"

// SybilCheckResult is one risk assessment for an address. The score comes
// from a deterministic placeholder, not a trained model.
type SybilCheckResult struct {
	Address            string    `json:"address"`
	IsSybil            bool      `json:"is_sybil"`
	RiskScore          int       `json:"risk_score"`
	Confidence         int       `json:"confidence"`
	VerificationStatus string    `json:"verification_status"`
	RequestID          string    `json:"request_id"`
	Timestamp          time.Time `json:"timestamp"`
}

// BatchCheckResult groups per-address assessments of one batch request.
type BatchCheckResult struct {
	Results   map[string]SybilCheckResult `json:"results"`
	RequestID string                      `json:"request_id"`
	Timestamp time.Time                   `json:"timestamp"`
}

// FeatureSet holds the per-category feature values the scoring placeholder
// derives for an address.
type FeatureSet struct {
	Address   string             `json:"address"`
	Features  map[string]float64 `json:"features"`
	Timestamp time.Time          `json:"timestamp"`
}
