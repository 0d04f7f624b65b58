package domain

import "time"

// Status is the verification lifecycle state. Transitions are monotone: a
// record never moves back to pending once verified, failed or expired.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
	StatusNotFound Status = "not_found"
)

// Terminal reports whether no further completion attempts can change the
// status.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed || s == StatusExpired
}

// MethodKind tags a verification method variant.
type MethodKind string

const (
	MethodSocialTwitter MethodKind = "social_twitter"
	MethodSocialGithub  MethodKind = "social_github"
	MethodDIDWeb        MethodKind = "did_web"
	MethodPoPCaptcha    MethodKind = "pop_captcha"
	MethodPoPVideo      MethodKind = "pop_video"
)

// VerificationRecord is the manager-level view of one verification, mirrored
// from the owning method on every check/complete.
type VerificationRecord struct {
	ID           string     `json:"verification_id"`
	Address      string     `json:"address"`
	Kind         MethodKind `json:"verification_type"`
	Status       Status     `json:"status"`
	Challenge    string     `json:"challenge"`
	Instructions string     `json:"instructions"`
	Attempts     int        `json:"attempts,omitempty"`
	MaxAttempts  int        `json:"max_attempts,omitempty"`
	ProofHash    string     `json:"proof_hash,omitempty"`
	CallbackURL  string     `json:"callback_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}
