package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/internal/service"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

func (h *Handler) initWebhookRoutes(api *gin.RouterGroup) {
	webhooks := api.Group("/webhooks", h.apiKeyMiddleware)
	{
		webhooks.POST("", h.subscribeWebhook)
		webhooks.DELETE("/:subscription_id", h.unsubscribeWebhook)
	}
}

type subscribeWebhookRequest struct {
	EventTypes []string `json:"event_types" binding:"required,min=1"`
	URL        string   `json:"url" binding:"required,url"`
	Secret     string   `json:"secret" binding:"omitempty,max=128"`
}

type subscribeWebhookResponse struct {
	SubscriptionID string   `json:"subscription_id"`
	EventTypes     []string `json:"event_types"`
	URL            string   `json:"url"`
	CreatedAt      string   `json:"created_at"`
}

// @Summary Subscribe Webhook
// @Tags Webhooks
// @Description Register a URL to receive signed event notifications
// @ModuleID subscribeWebhook
// @Accept  json
// @Produce  json
// @Param input body subscribeWebhookRequest true "subscription parameters"
// @Security ApiKeyAuth
// @Success 201 {object} subscribeWebhookResponse
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /webhooks [post]
func (h *Handler) subscribeWebhook(c *gin.Context) {
	var req subscribeWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	key, err := h.getAPIKey(c)
	if err != nil {
		logger.Error("api key lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve api key"})
		return
	}

	sub, err := h.services.Webhooks.Subscribe(c.Request.Context(), key.ID, req.EventTypes, req.URL, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEventType):
			errorResponse(c, http.StatusBadRequest, UnknownEventTypeCode)
		case errors.Is(err, service.ErrInvalidWebhookURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("webhook subscribe failed", zap.Error(err), zap.String("url", req.URL))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe webhook"})
		}
		return
	}

	c.JSON(http.StatusCreated, subscribeWebhookResponse{
		SubscriptionID: sub.ID.String(),
		EventTypes:     sub.Events(),
		URL:            sub.URL,
		CreatedAt:      sub.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// @Summary Unsubscribe Webhook
// @Tags Webhooks
// @Description Remove a webhook subscription owned by the calling API key
// @ModuleID unsubscribeWebhook
// @Produce  json
// @Param subscription_id path string true "subscription id (UUID)"
// @Security ApiKeyAuth
// @Success 204
// @Failure 401 {object} ErrorStruct
// @Failure 403 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /webhooks/{subscription_id} [delete]
func (h *Handler) unsubscribeWebhook(c *gin.Context) {
	subscriptionID, err := uuid.Parse(c.Param("subscription_id"))
	if err != nil {
		errorResponse(c, http.StatusNotFound, SubscriptionNotFoundCode)
		return
	}

	key, err := h.getAPIKey(c)
	if err != nil {
		logger.Error("api key lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve api key"})
		return
	}

	if err := h.services.Webhooks.Unsubscribe(c.Request.Context(), key.ID, subscriptionID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			errorResponse(c, http.StatusNotFound, SubscriptionNotFoundCode)
		case errors.Is(err, service.ErrNotSubscriptionOwner):
			errorResponse(c, http.StatusForbidden, SubscriptionForbiddenCode)
		default:
			logger.Error("webhook unsubscribe failed", zap.Error(err),
				zap.String("subscription_id", subscriptionID.String()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unsubscribe webhook"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}
