package verification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

// SignatureVerifier validates a DID signature over a challenge. Production
// wires a verifier that resolves the DID document and checks the signature
// against its verification methods.
type SignatureVerifier func(ctx context.Context, challenge, did, signature string) (bool, error)

// AcceptAllSignatures is a non-validating stand-in that accepts every
// signature. It must be replaced by a real verifier before any trust decision
// is made on these results.
func AcceptAllSignatures(_ context.Context, _, _, _ string) (bool, error) {
	return true, nil
}

type didProof struct {
	DID       string `json:"did"`
	Signature string `json:"signature"`
}

// DIDMethod verifies a decentralized identity by asking the holder to sign a
// challenge with a key from their DID document.
type DIDMethod struct {
	methodBase
	didMethod string
	verifier  SignatureVerifier
}

func NewDID(didMethod string, st store.Store, ttl time.Duration, verifier SignatureVerifier) *DIDMethod {
	if verifier == nil {
		verifier = AcceptAllSignatures
	}

	kind := domain.MethodKind("did_" + sanitizeDIDMethod(didMethod))

	return &DIDMethod{
		methodBase: newMethodBase(kind, st, ttl),
		didMethod:  didMethod,
		verifier:   verifier,
	}
}

func sanitizeDIDMethod(didMethod string) string {
	out := make([]byte, 0, len(didMethod))
	for i := 0; i < len(didMethod); i++ {
		c := didMethod[i]
		if c == ':' {
			c = '_'
		}
		out = append(out, c)
	}

	// "did:web" collapses to "web" so the kind reads did_web, not did_did_web.
	s := string(out)
	if len(s) > 4 && s[:4] == "did_" {
		s = s[4:]
	}

	return s
}

func (m *DIDMethod) StartVerification(ctx context.Context, address string) (*StartResult, error) {
	verificationID, err := m.newVerificationID(address)
	if err != nil {
		return nil, err
	}

	challenge := fmt.Sprintf("Verify Aptos address %s with DID at %d", address, m.now().Unix())

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

func (m *DIDMethod) CheckStatus(ctx context.Context, verificationID string) (*StatusSnapshot, error) {
	state, err := m.loadState(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	return m.snapshot(verificationID, state), nil
}

func (m *DIDMethod) CompleteVerification(ctx context.Context, verificationID string, proof json.RawMessage) (*CompleteResult, error) {
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

	var payload didProof
	if err := json.Unmarshal(proof, &payload); err != nil || payload.DID == "" || payload.Signature == "" {
		return &CompleteResult{
			VerificationID: verificationID,
			Status:         domain.StatusPending,
			ProofHash:      hash,
			Reason:         "proof must carry did and signature",
		}, nil
	}

	ok, err := m.verifier(ctx, state.Challenge, payload.DID, payload.Signature)
	if err != nil {
		return nil, fmt.Errorf("did signature check failed: %w", err)
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
		result.Reason = "invalid signature or did"
	}

	return result, nil
}

func (m *DIDMethod) instructions(challenge string) string {
	if m.didMethod == "did:web" {
		return fmt.Sprintf(
			"1. Create a DID document at your web domain\n"+
				"2. Add your Aptos address as a verification method\n"+
				"3. Sign the challenge: %s\n"+
				"4. Submit your DID and the signature as proof", challenge)
	}

	return fmt.Sprintf(
		"1. Using your %s identity\n"+
			"2. Sign the challenge: %s\n"+
			"3. Submit your DID and the signature as proof", m.didMethod, challenge)
}
