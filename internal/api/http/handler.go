package apiHttp

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mrarejimmyz/SybilShield/docs"
	"github.com/mrarejimmyz/SybilShield/pkg/limiter"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
	"github.com/mrarejimmyz/SybilShield/pkg/validator"

	internalV1 "github.com/mrarejimmyz/SybilShield/internal/api/http/internal/v1"
	"github.com/mrarejimmyz/SybilShield/internal/config"
	bucket "github.com/mrarejimmyz/SybilShield/internal/limiter"
	"github.com/mrarejimmyz/SybilShield/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Services
	buckets  *bucket.TokenBucket
	config   *config.Config
	started  time.Time
}

func NewHandlers(services *service.Services, buckets *bucket.TokenBucket, cfg *config.Config) *Handler {
	return &Handler{
		services: services,
		buckets:  buckets,
		config:   cfg,
		started:  time.Now(),
	}
}

func (h *Handler) Init(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	validator.RegisterGinValidator()

	router.Use(
		ginzap.Ginzap(logger.Logger(), time.RFC3339, true),
		limiter.Limit(cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Limiter.TTL),
		corsMiddleware,
	)
	router.Use(ginzap.RecoveryWithZap(logger.Logger(), true))

	if cfg.HttpServer.SwaggerEnabled {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.NewHandler(), ginSwagger.InstanceName("internal")))
	}

	router.GET("/health", h.health)

	h.initAPI(router)

	return router
}

func (h *Handler) initAPI(router *gin.Engine) {
	internalHandlersV1 := internalV1.NewHandler(h.services, h.buckets, h.config)
	api := router.Group("/api")
	internalHandlersV1.Init(api)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}
