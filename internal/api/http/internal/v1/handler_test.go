package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/limiter"
	"github.com/mrarejimmyz/SybilShield/internal/service"
	"github.com/mrarejimmyz/SybilShield/internal/store"
	"github.com/mrarejimmyz/SybilShield/pkg/validator"
)

const (
	testRawKey  = "ask_0123456789abcdef0123456789abcdef"
	testAddress = "0xabc12345"
)

var testKeyID = uuid.MustParse("0198f680-0000-7000-8000-000000000000")

type stubSybil struct {
	result *domain.SybilCheckResult
	raw    json.RawMessage
}

func (s *stubSybil) Check(_ context.Context, address string, _ int) (*domain.SybilCheckResult, error) {
	result := *s.result
	result.Address = address
	return &result, nil
}

func (s *stubSybil) BatchCheck(_ context.Context, addresses []string, _ int) (*domain.BatchCheckResult, error) {
	if len(addresses) > 2 {
		return nil, service.ErrBatchTooLarge
	}
	batch := &domain.BatchCheckResult{
		Results:   make(map[string]domain.SybilCheckResult, len(addresses)),
		RequestID: "batch_test",
		Timestamp: time.Now(),
	}
	for _, address := range addresses {
		result := *s.result
		result.Address = address
		batch.Results[address] = result
	}
	return batch, nil
}

func (s *stubSybil) GetResult(_ context.Context, requestID string) (json.RawMessage, error) {
	if s.raw == nil || requestID != s.result.RequestID {
		return nil, domain.ErrNotFound
	}
	return s.raw, nil
}

func (s *stubSybil) Features(_ context.Context, address string) (*domain.FeatureSet, error) {
	return &domain.FeatureSet{
		Address:   address,
		Features:  map[string]float64{"transaction_patterns": 0.5},
		Timestamp: time.Now(),
	}, nil
}

type stubVerifications struct {
	records map[string]*domain.VerificationRecord
}

func (s *stubVerifications) Start(_ context.Context, kind domain.MethodKind, address, callbackURL string) (*domain.VerificationRecord, error) {
	if kind != domain.MethodSocialTwitter {
		return nil, domain.ErrUnsupportedMethod
	}
	record := &domain.VerificationRecord{
		ID:          "social_twitter_" + address + "_1_deadbeef",
		Address:     address,
		Kind:        kind,
		Status:      domain.StatusPending,
		Challenge:   "post this",
		CallbackURL: callbackURL,
		CreatedAt:   time.Now(),
	}
	s.records[record.ID] = record
	return record, nil
}

func (s *stubVerifications) Check(_ context.Context, verificationID string) (*domain.VerificationRecord, error) {
	record, ok := s.records[verificationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *stubVerifications) Complete(_ context.Context, verificationID string, _ json.RawMessage) (*domain.VerificationRecord, error) {
	record, ok := s.records[verificationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !record.Status.Terminal() {
		record.Status = domain.StatusVerified
	}
	return record, nil
}

func (s *stubVerifications) History(_ context.Context, address string) ([]domain.VerificationRecord, error) {
	var out []domain.VerificationRecord
	for _, record := range s.records {
		if record.Address == address {
			out = append(out, *record)
		}
	}
	return out, nil
}

func (s *stubVerifications) Methods() []domain.MethodKind {
	return []domain.MethodKind{domain.MethodSocialTwitter}
}

type stubAPIKeys struct {
	rateLimit int
}

func (s *stubAPIKeys) Create(_ context.Context, userID string, rateLimit int) (string, *domain.APIKey, error) {
	if rateLimit == 0 {
		rateLimit = 100
	}
	return testRawKey, &domain.APIKey{
		ID:        testKeyID,
		UserID:    userID,
		KeyHash:   "hashed",
		RateLimit: rateLimit,
		CreatedAt: time.Now(),
	}, nil
}

func (s *stubAPIKeys) Validate(_ context.Context, rawKey string) (*domain.APIKey, error) {
	if rawKey != testRawKey {
		return nil, service.ErrInvalidAPIKey
	}
	return &domain.APIKey{ID: testKeyID, UserID: "user_1", RateLimit: s.rateLimit}, nil
}

type stubWebhooks struct {
	subscriptions map[uuid.UUID]*domain.WebhookSubscription
}

func (s *stubWebhooks) Subscribe(_ context.Context, apiKeyID uuid.UUID, eventTypes []string, url, secret string) (*domain.WebhookSubscription, error) {
	for _, t := range eventTypes {
		if !domain.ValidEventType(t) {
			return nil, service.ErrUnknownEventType
		}
	}
	sub := &domain.WebhookSubscription{
		ID:         uuid.New(),
		APIKeyID:   apiKeyID,
		EventTypes: eventTypes[0],
		URL:        url,
		Secret:     secret,
		CreatedAt:  time.Now(),
	}
	s.subscriptions[sub.ID] = sub
	return sub, nil
}

func (s *stubWebhooks) Unsubscribe(_ context.Context, apiKeyID, subscriptionID uuid.UUID) error {
	sub, ok := s.subscriptions[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	if sub.APIKeyID != apiKeyID {
		return service.ErrNotSubscriptionOwner
	}
	delete(s.subscriptions, subscriptionID)
	return nil
}

type testEnv struct {
	router        *gin.Engine
	verifications *stubVerifications
	webhooks      *stubWebhooks
}

func setupTestRouter(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterGinValidator()

	result := &domain.SybilCheckResult{
		IsSybil:            false,
		RiskScore:          42,
		Confidence:         85,
		VerificationStatus: "unverified",
		RequestID:          "req_test",
		Timestamp:          time.Now(),
	}
	raw, err := json.Marshal(result)
	require.NoError(t, err)

	verifications := &stubVerifications{records: make(map[string]*domain.VerificationRecord)}
	webhooks := &stubWebhooks{subscriptions: make(map[uuid.UUID]*domain.WebhookSubscription)}

	services := &service.Services{
		Sybil:         &stubSybil{result: result, raw: raw},
		Verifications: verifications,
		APIKeys:       &stubAPIKeys{rateLimit: rateLimit},
		Webhooks:      webhooks,
	}

	handler := NewHandler(services, limiter.NewTokenBucket(store.NewMemory()), &config.Config{})

	router := gin.New()
	handler.Init(router.Group("/api"))

	return &testEnv{router: router, verifications: verifications, webhooks: webhooks}
}

func doRequest(t *testing.T, router *gin.Engine, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCreateAPIKey(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/keys", "",
		gin.H{"user_id": "user_1"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var body createAPIKeyResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, testRawKey, body.APIKey)
	assert.Equal(t, "user_1", body.UserID)
	assert.Equal(t, 100, body.RateLimit)
}

func TestCreateAPIKeyValidation(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/keys", "",
		gin.H{"user_id": "ab"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body ValidationErrorStruct
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "user_id", body.Errors[0].FieldKey)
}

func TestAuthRequired(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/check", "",
		gin.H{"address": testAddress})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = doRequest(t, env.router, http.MethodPost, "/api/v1/check", "ask_wrong",
		gin.H{"address": testAddress})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestPerKeyRateLimit(t *testing.T) {
	env := setupTestRouter(t, 1)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/check", testRawKey,
		gin.H{"address": testAddress})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, env.router, http.MethodPost, "/api/v1/check", testRawKey,
		gin.H{"address": testAddress})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
}

func TestCheckAddress(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/check", testRawKey,
		gin.H{"address": testAddress, "threshold": 70})
	require.Equal(t, http.StatusOK, resp.Code)

	var result domain.SybilCheckResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, testAddress, result.Address)
	assert.Equal(t, 42, result.RiskScore)
}

func TestCheckAddressValidation(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/check", testRawKey,
		gin.H{"address": "not-an-address"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body ValidationErrorStruct
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "address", body.Errors[0].FieldKey)
}

func TestBatchCheck(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/check/batch", testRawKey,
		gin.H{"addresses": []string{"0xabc12345", "0xdef67890"}})
	require.Equal(t, http.StatusOK, resp.Code)

	var batch domain.BatchCheckResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &batch))
	assert.Len(t, batch.Results, 2)

	resp = doRequest(t, env.router, http.MethodPost, "/api/v1/check/batch", testRawKey,
		gin.H{"addresses": []string{"0xabc12345", "0xdef67890", "0xabcdef12"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetCheckResult(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodGet, "/api/v1/check/req_test", testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, env.router, http.MethodGet, "/api/v1/check/req_missing", testRawKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestVerificationFlow(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodGet, "/api/v1/verify/methods", testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "social_twitter")

	resp = doRequest(t, env.router, http.MethodPost, "/api/v1/verify", testRawKey,
		gin.H{"address": testAddress, "verification_type": "social_twitter"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var record domain.VerificationRecord
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &record))
	assert.Equal(t, domain.StatusPending, record.Status)

	resp = doRequest(t, env.router, http.MethodGet, "/api/v1/verify/"+record.ID, testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(t, env.router, http.MethodPost, "/api/v1/verify/"+record.ID+"/complete", testRawKey,
		gin.H{"proof": gin.H{"url": "https://twitter.com/u/status/1"}})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &record))
	assert.Equal(t, domain.StatusVerified, record.Status)

	resp = doRequest(t, env.router, http.MethodGet, "/api/v1/verify/history/"+testAddress, testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), record.ID)
}

func TestStartVerificationUnsupported(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/verify", testRawKey,
		gin.H{"address": testAddress, "verification_type": "palm_reading"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unsupported verification method")
}

func TestCompleteExpiredVerification(t *testing.T) {
	env := setupTestRouter(t, 100)

	expired := &domain.VerificationRecord{
		ID:      "social_twitter_" + testAddress + "_1_feedface",
		Address: testAddress,
		Kind:    domain.MethodSocialTwitter,
		Status:  domain.StatusExpired,
	}
	env.verifications.records[expired.ID] = expired

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/verify/"+expired.ID+"/complete", testRawKey,
		gin.H{"proof": gin.H{"url": "https://twitter.com/u/status/1"}})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var body ErrorStruct
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, ErrorCode(VerificationExpiredCode), body.ErrorCode)
	assert.Equal(t, ErrorMessage(VerificationExpiredMessage), body.ErrorMessage)

	// The expired state is still readable through the status endpoint.
	resp = doRequest(t, env.router, http.MethodGet, "/api/v1/verify/"+expired.ID, testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"expired"`)
}

func TestVerificationNotFound(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodGet, "/api/v1/verify/social_twitter_0x0_0_00000000", testRawKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestWebhookSubscribeAndUnsubscribe(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/webhooks", testRawKey,
		gin.H{"event_types": []string{"verification_complete"}, "url": "https://hooks.example.com/x"})
	require.Equal(t, http.StatusCreated, resp.Code)

	var body subscribeWebhookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SubscriptionID)

	resp = doRequest(t, env.router, http.MethodDelete, "/api/v1/webhooks/"+body.SubscriptionID, testRawKey, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = doRequest(t, env.router, http.MethodDelete, "/api/v1/webhooks/"+body.SubscriptionID, testRawKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestWebhookSubscribeUnknownEvent(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodPost, "/api/v1/webhooks", testRawKey,
		gin.H{"event_types": []string{"no_such_event"}, "url": "https://hooks.example.com/x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAddressFeatures(t *testing.T) {
	env := setupTestRouter(t, 100)

	resp := doRequest(t, env.router, http.MethodGet, "/api/v1/analytics/features/"+testAddress, testRawKey, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var features domain.FeatureSet
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &features))
	assert.Equal(t, testAddress, features.Address)
	assert.Contains(t, features.Features, "transaction_patterns")
}
