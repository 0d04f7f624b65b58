package verification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/store"
)

func TestSocialStartChallengeShape(t *testing.T) {
	ctx := context.Background()
	m := NewSocial("twitter", store.NewMemory(), time.Hour, nil)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodSocialTwitter, m.Kind())
	assert.Contains(t, res.Challenge, testAddress)
	assert.Contains(t, res.Challenge, "Verification code:")
	assert.Contains(t, res.Instructions, "Twitter")
	assert.Equal(t, domain.StatusPending, res.Status)
}

func TestSocialGithubInstructions(t *testing.T) {
	ctx := context.Background()
	m := NewSocial("github", store.NewMemory(), time.Hour, nil)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	assert.Equal(t, domain.MethodSocialGithub, m.Kind())
	assert.Contains(t, res.Instructions, "gist")
}

func TestSocialCompleteRecordsProofHashAndDelegates(t *testing.T) {
	ctx := context.Background()

	var gotChallenge, gotURL string
	checker := func(_ context.Context, challenge, url string) (bool, error) {
		gotChallenge = challenge
		gotURL = url
		return true, nil
	}

	m := NewSocial("twitter", store.NewMemory(), time.Hour, checker)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	out, err := m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"url":"https://twitter.com/user/status/1"}`))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusVerified, out.Status)
	assert.Len(t, out.ProofHash, 64)
	assert.Equal(t, res.Challenge, gotChallenge)
	assert.Equal(t, "https://twitter.com/user/status/1", gotURL)
}

func TestSocialCheckerRejectionFails(t *testing.T) {
	ctx := context.Background()
	checker := func(context.Context, string, string) (bool, error) { return false, nil }
	m := NewSocial("twitter", store.NewMemory(), time.Hour, checker)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	out, err := m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, out.Status)
	assert.NotEmpty(t, out.Reason)
}

func TestSocialCheckerErrorPropagates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("fetch failed")
	checker := func(context.Context, string, string) (bool, error) { return false, boom }
	m := NewSocial("twitter", store.NewMemory(), time.Hour, checker)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	_, err = m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"url":"https://example.com"}`))
	assert.ErrorIs(t, err, boom)
}

func TestSocialMalformedProofStaysPending(t *testing.T) {
	ctx := context.Background()
	m := NewSocial("twitter", store.NewMemory(), time.Hour, nil)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	out, err := m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"nope":true}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)

	snap, err := m.CheckStatus(ctx, res.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, snap.Status)
}

func TestSocialCheckStatusIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewSocial("twitter", store.NewMemory(), time.Hour, nil)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	first, err := m.CheckStatus(ctx, res.VerificationID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := m.CheckStatus(ctx, res.VerificationID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDIDCompleteRequiresDidAndSignature(t *testing.T) {
	ctx := context.Background()
	m := NewDID("did:web", store.NewMemory(), time.Hour, nil)

	assert.Equal(t, domain.MethodDIDWeb, m.Kind())

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	out, err := m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"did":"did:web:example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status, "missing signature is not a terminal failure")

	out, err = m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"did":"did:web:example.com","signature":"c2ln"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusVerified, out.Status)
}

func TestDIDVerifierRejectionFails(t *testing.T) {
	ctx := context.Background()
	verifier := func(context.Context, string, string, string) (bool, error) { return false, nil }
	m := NewDID("did:web", store.NewMemory(), time.Hour, verifier)

	res, err := m.StartVerification(ctx, testAddress)
	require.NoError(t, err)

	out, err := m.CompleteVerification(ctx, res.VerificationID, json.RawMessage(`{"did":"did:web:example.com","signature":"bad"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, out.Status)
}

func TestVerificationIDsUnique(t *testing.T) {
	ctx := context.Background()
	m := NewSocial("twitter", store.NewMemory(), time.Hour, nil)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		res, err := m.StartVerification(ctx, testAddress)
		require.NoError(t, err)
		require.False(t, seen[res.VerificationID], "duplicate id %s", res.VerificationID)
		seen[res.VerificationID] = true
	}
}
