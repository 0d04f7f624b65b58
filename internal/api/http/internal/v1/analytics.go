package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

func (h *Handler) initAnalyticsRoutes(api *gin.RouterGroup) {
	analytics := api.Group("/analytics", h.apiKeyMiddleware)
	{
		analytics.GET("/features/:address", h.getAddressFeatures)
	}
}

// @Summary Get Address Features
// @Tags Analytics
// @Description Expose the per-category feature values the detector derives for an address
// @ModuleID getAddressFeatures
// @Produce  json
// @Param address path string true "aptos address"
// @Security ApiKeyAuth
// @Success 200 {object} domain.FeatureSet
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /analytics/features/{address} [get]
func (h *Handler) getAddressFeatures(c *gin.Context) {
	address := c.Param("address")

	features, err := h.services.Sybil.Features(c.Request.Context(), address)
	if err != nil {
		logger.Error("feature extraction failed", zap.Error(err), zap.String("address", address))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract features"})
		return
	}

	c.JSON(http.StatusOK, features)
}
