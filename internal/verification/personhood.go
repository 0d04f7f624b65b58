package verification

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
	"github.com/mrarejimmyz/SybilShield/pkg/otp"
)

// LivenessChecker judges an opaque liveness-session payload. Production wires
// a checker backed by a real liveness provider.
type LivenessChecker func(ctx context.Context, sessionToken string, payload []byte) (bool, error)

// AcceptAllLiveness is a non-validating stand-in that accepts every liveness
// payload. It must be replaced before any trust decision is made on these
// results.
func AcceptAllLiveness(_ context.Context, _ string, _ []byte) (bool, error) {
	return true, nil
}

// PersonhoodMethod verifies that a single human is behind a request, either
// with an arithmetic captcha or a liveness session. Completion attempts are
// counted: the counter increments before evaluation, and once it passes the
// maximum the verification fails regardless of proof correctness.
type PersonhoodMethod struct {
	methodBase
	mode        string
	maxAttempts int
	tokens      otp.Generator
	liveness    LivenessChecker
	intn        func(n int) int
}

func NewCaptcha(st store.Store, ttl time.Duration, maxAttempts int) *PersonhoodMethod {
	return &PersonhoodMethod{
		methodBase:  newMethodBase(domain.MethodPoPCaptcha, st, ttl),
		mode:        "captcha",
		maxAttempts: maxAttempts,
		intn:        rand.Intn,
	}
}

func NewVideo(st store.Store, ttl time.Duration, maxAttempts int, tokens otp.Generator, liveness LivenessChecker) *PersonhoodMethod {
	if liveness == nil {
		liveness = AcceptAllLiveness
	}

	return &PersonhoodMethod{
		methodBase:  newMethodBase(domain.MethodPoPVideo, st, ttl),
		mode:        "video",
		maxAttempts: maxAttempts,
		tokens:      tokens,
		liveness:    liveness,
		intn:        rand.Intn,
	}
}

func (m *PersonhoodMethod) StartVerification(ctx context.Context, address string) (*StartResult, error) {
	verificationID, err := m.newVerificationID(address)
	if err != nil {
		return nil, err
	}

	state := &challengeState{
		Address:     address,
		Status:      domain.StatusPending,
		MaxAttempts: m.maxAttempts,
		CreatedAt:   m.now(),
	}

	if m.mode == "captcha" {
		state.Challenge, state.Answer = m.buildArithmeticChallenge()
	} else {
		state.Challenge = m.tokens.RandomSecret(16)
	}

	if err := m.saveState(ctx, verificationID, state); err != nil {
		return nil, err
	}

	return &StartResult{
		VerificationID: verificationID,
		Challenge:      state.Challenge,
		Instructions:   m.instructions(),
		Status:         domain.StatusPending,
		MaxAttempts:    m.maxAttempts,
	}, nil
}

func (m *PersonhoodMethod) CheckStatus(ctx context.Context, verificationID string) (*StatusSnapshot, error) {
	state, err := m.loadState(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	return m.snapshot(verificationID, state), nil
}

func (m *PersonhoodMethod) CompleteVerification(ctx context.Context, verificationID string, proof json.RawMessage) (*CompleteResult, error) {
	state, err := m.loadState(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return notFoundResult(verificationID), nil
	}
	if state.Status.Terminal() {
		return &CompleteResult{
			VerificationID: verificationID,
			Status:         state.Status,
			Attempts:       state.Attempts,
			MaxAttempts:    state.MaxAttempts,
			Reason:         "verification already settled",
		}, nil
	}

	hash := proofHash(proof)

	// Attempts increment before the proof is evaluated.
	state.Attempts++

	if state.Attempts > state.MaxAttempts {
		state.Status = domain.StatusFailed
		if err := m.saveState(ctx, verificationID, state); err != nil {
			return nil, err
		}
		return &CompleteResult{
			VerificationID: verificationID,
			Status:         domain.StatusFailed,
			ProofHash:      hash,
			Attempts:       state.Attempts,
			MaxAttempts:    state.MaxAttempts,
			Reason:         "maximum attempts exceeded",
		}, nil
	}

	ok, err := m.evaluate(ctx, state, proof)
	if err != nil {
		return nil, err
	}

	reason := ""
	switch {
	case ok:
		state.Status = domain.StatusVerified
	case state.Attempts >= state.MaxAttempts:
		state.Status = domain.StatusFailed
		reason = "maximum attempts exceeded"
	default:
		reason = "verification failed, please try again"
	}

	if err := m.saveState(ctx, verificationID, state); err != nil {
		return nil, err
	}

	return &CompleteResult{
		VerificationID: verificationID,
		Status:         state.Status,
		ProofHash:      hash,
		Attempts:       state.Attempts,
		MaxAttempts:    state.MaxAttempts,
		Reason:         reason,
	}, nil
}

func (m *PersonhoodMethod) evaluate(ctx context.Context, state *challengeState, proof json.RawMessage) (bool, error) {
	if m.mode == "captcha" {
		var answer string
		if err := json.Unmarshal(proof, &answer); err != nil {
			// Allow bare numeric payloads as well.
			answer = string(proof)
		}
		return subtle.ConstantTimeCompare([]byte(answer), []byte(state.Answer)) == 1, nil
	}

	var payload []byte
	var asString string
	if err := json.Unmarshal(proof, &asString); err == nil {
		payload = []byte(asString)
	} else {
		payload = proof
	}

	ok, err := m.liveness(ctx, state.Challenge, payload)
	if err != nil {
		return false, fmt.Errorf("liveness check failed: %w", err)
	}

	return ok, nil
}

func (m *PersonhoodMethod) buildArithmeticChallenge() (question, answer string) {
	a := m.intn(9) + 1
	b := m.intn(9) + 1

	var result int
	var op string
	switch m.intn(3) {
	case 0:
		op, result = "+", a+b
	case 1:
		op, result = "-", a-b
	default:
		op, result = "*", a*b
	}

	return fmt.Sprintf("What is %d %s %d?", a, op, b), strconv.Itoa(result)
}

func (m *PersonhoodMethod) instructions() string {
	if m.mode == "captcha" {
		return "Solve the CAPTCHA challenge and submit your answer"
	}

	return "1. Allow camera access when prompted\n" +
		"2. Follow the on-screen instructions\n" +
		"3. Complete the facial verification process"
}
