package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/service"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

const (
	apiKeyHeader = "X-API-Key"
	apiKeyCtx    = "apiKey"
)

// apiKeyMiddleware authenticates the caller and charges one token from the
// key's per-minute bucket. Store outages surface as 503, not as an open gate.
func (h *Handler) apiKeyMiddleware(c *gin.Context) {
	rawKey := c.GetHeader(apiKeyHeader)
	if rawKey == "" {
		errorResponse(c, http.StatusUnauthorized, APIKeyMissingCode)
		return
	}

	key, err := h.services.APIKeys.Validate(c.Request.Context(), rawKey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAPIKey) {
			errorResponse(c, http.StatusUnauthorized, APIKeyInvalidCode)
			return
		}
		logger.Error("api key validation failed", zap.Error(err))
		errorResponse(c, http.StatusServiceUnavailable, StoreUnavailableCode)
		return
	}

	perMinute := float64(key.RateLimit)
	allowed, err := h.buckets.Consume(c.Request.Context(),
		"api:"+key.ID.String(), 1, perMinute/60, perMinute)
	if err != nil {
		logger.Error("rate limit check failed", zap.Error(err), zap.String("api_key_id", key.ID.String()))
		errorResponse(c, http.StatusServiceUnavailable, StoreUnavailableCode)
		return
	}
	if !allowed {
		errorResponse(c, http.StatusTooManyRequests, RateLimitExceededCode)
		return
	}

	c.Set(apiKeyCtx, key)
}

func (h *Handler) getAPIKey(c *gin.Context) (*domain.APIKey, error) {
	value, ok := c.Get(apiKeyCtx)
	if !ok {
		return nil, errors.New("api key not found in context")
	}

	key, ok := value.(*domain.APIKey)
	if !ok {
		return nil, errors.New("api key context holds unexpected type")
	}

	return key, nil
}
