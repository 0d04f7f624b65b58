package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

// StartResult is a method's answer to a new verification request.
type StartResult struct {
	VerificationID string
	Challenge      string
	Instructions   string
	Status         domain.Status
	Attempts       int
	MaxAttempts    int
}

// StatusSnapshot is a pure read of a method's view of one verification.
// Unknown ids yield Status == domain.StatusNotFound, never an error.
type StatusSnapshot struct {
	VerificationID string
	Address        string
	Status         domain.Status
	Attempts       int
	MaxAttempts    int
}

// CompleteResult is a method's answer to a completion attempt. Reason carries
// a short human-readable explanation for non-verified outcomes.
type CompleteResult struct {
	VerificationID string
	Status         domain.Status
	ProofHash      string
	Attempts       int
	MaxAttempts    int
	Reason         string
}

// Method is one verification variant. Unknown verification ids are expected
// outcomes at all three operations and reported in the result, not as errors;
// only store failures surface as errors. Callers serialize operations per
// verification id.
type Method interface {
	Kind() domain.MethodKind
	StartVerification(ctx context.Context, address string) (*StartResult, error)
	CheckStatus(ctx context.Context, verificationID string) (*StatusSnapshot, error)
	CompleteVerification(ctx context.Context, verificationID string, proof json.RawMessage) (*CompleteResult, error)
}

// challengeState is the method-owned side of a verification, persisted in the
// shared store under the method's key prefix.
type challengeState struct {
	Address     string        `json:"address"`
	Challenge   string        `json:"challenge"`
	Answer      string        `json:"answer,omitempty"`
	Status      domain.Status `json:"status"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	CreatedAt   time.Time     `json:"created_at"`
}

type methodBase struct {
	kind  domain.MethodKind
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

func newMethodBase(kind domain.MethodKind, st store.Store, ttl time.Duration) methodBase {
	return methodBase{
		kind:  kind,
		store: st,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (b *methodBase) Kind() domain.MethodKind {
	return b.kind
}

func (b *methodBase) stateKey(verificationID string) string {
	return "challenge:" + string(b.kind) + ":" + verificationID
}

// newVerificationID combines method tag, address, timestamp and a random
// component, making collisions overwhelmingly unlikely.
func (b *methodBase) newVerificationID(address string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random component failed: %w", err)
	}

	return fmt.Sprintf("%s_%s_%d_%s", b.kind, address, b.now().Unix(), hex.EncodeToString(buf)), nil
}

func (b *methodBase) loadState(ctx context.Context, verificationID string) (*challengeState, error) {
	raw, err := b.store.Get(ctx, b.stateKey(verificationID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch challenge state failed: %w", err)
	}

	var state challengeState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode challenge state failed: %w", err)
	}

	return &state, nil
}

func (b *methodBase) saveState(ctx context.Context, verificationID string, state *challengeState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode challenge state failed: %w", err)
	}
	if err := b.store.Set(ctx, b.stateKey(verificationID), encoded, b.ttl); err != nil {
		return fmt.Errorf("persist challenge state failed: %w", err)
	}

	return nil
}

func (b *methodBase) snapshot(verificationID string, state *challengeState) *StatusSnapshot {
	if state == nil {
		return &StatusSnapshot{VerificationID: verificationID, Status: domain.StatusNotFound}
	}

	return &StatusSnapshot{
		VerificationID: verificationID,
		Address:        state.Address,
		Status:         state.Status,
		Attempts:       state.Attempts,
		MaxAttempts:    state.MaxAttempts,
	}
}

func notFoundResult(verificationID string) *CompleteResult {
	return &CompleteResult{
		VerificationID: verificationID,
		Status:         domain.StatusNotFound,
		Reason:         "verification id not found",
	}
}

func proofHash(proof []byte) string {
	sum := sha256.Sum256(proof)
	return hex.EncodeToString(sum[:])
}
