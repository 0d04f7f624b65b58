package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/service"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

func (h *Handler) initKeysRoutes(api *gin.RouterGroup) {
	keys := api.Group("/keys")
	{
		keys.POST("", h.createAPIKey)
	}
}

type createAPIKeyRequest struct {
	UserID    string `json:"user_id" binding:"required,min=3,max=50"`
	RateLimit int    `json:"rate_limit" binding:"omitempty,min=1"`
}

type createAPIKeyResponse struct {
	APIKey    string `json:"api_key"`
	APIKeyID  string `json:"api_key_id"`
	UserID    string `json:"user_id"`
	RateLimit int    `json:"rate_limit"`
	CreatedAt string `json:"created_at"`
}

// @Summary Create API Key
// @Tags Keys
// @Description Issue a new API key. The raw key is returned once and cannot be recovered later.
// @ModuleID createAPIKey
// @Accept  json
// @Produce  json
// @Param input body createAPIKeyRequest true "key parameters"
// @Success 201 {object} createAPIKeyResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /keys [post]
func (h *Handler) createAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	rawKey, key, err := h.services.APIKeys.Create(c.Request.Context(), req.UserID, req.RateLimit)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUserID) || errors.Is(err, service.ErrInvalidRateLimit) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("create api key failed", zap.Error(err), zap.String("user_id", req.UserID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create api key"})
		return
	}

	c.JSON(http.StatusCreated, createAPIKeyResponse{
		APIKey:    rawKey,
		APIKeyID:  key.ID.String(),
		UserID:    key.UserID,
		RateLimit: key.RateLimit,
		CreatedAt: key.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
