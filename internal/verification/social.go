package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

// ProofChecker decides whether a posted URL satisfies a social challenge.
// Production wires a checker that fetches the URL and matches the challenge
// text against an account the caller controls.
type ProofChecker func(ctx context.Context, challenge, proofURL string) (bool, error)

// AcceptAllProofs is a non-validating stand-in that accepts every proof.
// It performs no outbound verification whatsoever and must be replaced by a
// real checker before any trust decision is made on these results.
func AcceptAllProofs(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

type socialProof struct {
	URL string `json:"url"`
}

// SocialMethod verifies control of a social account by asking the user to
// post a challenge message and submit the post URL.
type SocialMethod struct {
	methodBase
	platform string
	checker  ProofChecker
}

func NewSocial(platform string, st store.Store, ttl time.Duration, checker ProofChecker) *SocialMethod {
	if checker == nil {
		checker = AcceptAllProofs
	}

	return &SocialMethod{
		methodBase: newMethodBase(domain.MethodKind("social_"+platform), st, ttl),
		platform:   platform,
		checker:    checker,
	}
}

func (m *SocialMethod) StartVerification(ctx context.Context, address string) (*StartResult, error) {
	verificationID, err := m.newVerificationID(address)
	if err != nil {
		return nil, err
	}

	challenge := m.buildChallenge(address)

	state := &challengeState{
		Address:   address,
		Challenge: challenge,
		Status:    domain.StatusPending,
		CreatedAt: m.now(),
	}
	if err := m.saveState(ctx, verificationID, state); err != nil {
		return nil, err
	}

	return &StartResult{
		VerificationID: verificationID,
		Challenge:      challenge,
		Instructions:   m.instructions(challenge),
		Status:         domain.StatusPending,
	}, nil
}

func (m *SocialMethod) CheckStatus(ctx context.Context, verificationID string) (*StatusSnapshot, error) {
	state, err := m.loadState(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	return m.snapshot(verificationID, state), nil
}

func (m *SocialMethod) CompleteVerification(ctx context.Context, verificationID string, proof json.RawMessage) (*CompleteResult, error) {
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
			Reason:         "verification already settled",
		}, nil
	}

	hash := proofHash(proof)

	var payload socialProof
	if err := json.Unmarshal(proof, &payload); err != nil || payload.URL == "" {
		return &CompleteResult{
			VerificationID: verificationID,
			Status:         domain.StatusPending,
			ProofHash:      hash,
			Reason:         "proof must carry a post url",
		}, nil
	}

	ok, err := m.checker(ctx, state.Challenge, payload.URL)
	if err != nil {
		return nil, fmt.Errorf("social proof check failed: %w", err)
	}

	if ok {
		state.Status = domain.StatusVerified
	} else {
		state.Status = domain.StatusFailed
	}
	if err := m.saveState(ctx, verificationID, state); err != nil {
		return nil, err
	}

	result := &CompleteResult{
		VerificationID: verificationID,
		Status:         state.Status,
		ProofHash:      hash,
	}
	if !ok {
		result.Reason = "challenge message not found at proof url"
	}

	return result, nil
}

// buildChallenge embeds the address, a timestamp and a short code derived
// from the message itself, so the posted text is bound to this verification.
func (m *SocialMethod) buildChallenge(address string) string {
	message := fmt.Sprintf("Verifying my Aptos address %s for SybilShield at %d", address, m.now().Unix())
	sum := sha256.Sum256([]byte(message))
	code := hex.EncodeToString(sum[:])[:16]

	return fmt.Sprintf("%s Verification code: %s", message, code)
}

func (m *SocialMethod) instructions(challenge string) string {
	switch m.platform {
	case "twitter":
		return fmt.Sprintf(
			"1. Post the following message on your Twitter account:\n\n%s\n\n"+
				"2. Make sure the post is public\n"+
				"3. Copy the URL of your tweet and submit it as proof", challenge)
	case "github":
		return fmt.Sprintf(
			"1. Create a public gist on GitHub\n"+
				"2. Name the file 'aptos_verification.txt'\n"+
				"3. Add the following content to the gist:\n\n%s\n\n"+
				"4. Copy the URL of your gist and submit it as proof", challenge)
	default:
		return fmt.Sprintf(
			"1. Post the following message on your %s account:\n\n%s\n\n"+
				"2. Make sure the post is public\n"+
				"3. Copy the URL of your post and submit it as proof", m.platform, challenge)
	}
}
