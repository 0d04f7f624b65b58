package v1

import (
	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/limiter"
	"github.com/mrarejimmyz/SybilShield/internal/service"

	"github.com/gin-gonic/gin"
)

// @title SybilShield API
// @version 1.0
// @description Sybil detection and identity verification for Aptos addresses

// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

type Handler struct {
	services *service.Services
	buckets  *limiter.TokenBucket
	config   *config.Config
}

func NewHandler(services *service.Services, buckets *limiter.TokenBucket, config *config.Config) *Handler {
	return &Handler{
		services: services,
		buckets:  buckets,
		config:   config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	// Key issuance sits outside the versioned group; it bootstraps access to it.
	h.initKeysRoutes(api)

	v1 := api.Group("v1")

	h.initCheckRoutes(v1)
	h.initVerifyRoutes(v1)
	h.initWebhookRoutes(v1)
	h.initAnalyticsRoutes(v1)
}
