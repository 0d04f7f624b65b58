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

func (h *Handler) initCheckRoutes(api *gin.RouterGroup) {
	check := api.Group("/check", h.apiKeyMiddleware)
	{
		check.POST("", h.checkAddress)
		check.POST("/batch", h.checkAddressBatch)
		check.GET("/:request_id", h.getCheckResult)
	}
}

type checkAddressRequest struct {
	Address   string `json:"address" binding:"required,aptosaddress"`
	Threshold int    `json:"threshold" binding:"omitempty,min=1,max=100"`
}

type batchCheckRequest struct {
	Addresses []string `json:"addresses" binding:"required,min=1,dive,aptosaddress"`
	Threshold int      `json:"threshold" binding:"omitempty,min=1,max=100"`
}

// @Summary Check Address
// @Tags Check
// @Description Assess one Aptos address for Sybil risk
// @ModuleID checkAddress
// @Accept  json
// @Produce  json
// @Param input body checkAddressRequest true "address to assess"
// @Security ApiKeyAuth
// @Success 200 {object} domain.SybilCheckResult
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 429 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /check [post]
func (h *Handler) checkAddress(c *gin.Context) {
	var req checkAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	result, err := h.services.Sybil.Check(c.Request.Context(), req.Address, req.Threshold)
	if err != nil {
		logger.Error("sybil check failed", zap.Error(err), zap.String("address", req.Address))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check address"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Check Address Batch
// @Tags Check
// @Description Assess up to the configured maximum of addresses in one request
// @ModuleID checkAddressBatch
// @Accept  json
// @Produce  json
// @Param input body batchCheckRequest true "addresses to assess"
// @Security ApiKeyAuth
// @Success 200 {object} domain.BatchCheckResult
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 429 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /check/batch [post]
func (h *Handler) checkAddressBatch(c *gin.Context) {
	var req batchCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	batch, err := h.services.Sybil.BatchCheck(c.Request.Context(), req.Addresses, req.Threshold)
	if err != nil {
		if errors.Is(err, service.ErrBatchTooLarge) {
			errorResponse(c, http.StatusBadRequest, BatchTooLargeCode)
			return
		}
		logger.Error("batch check failed", zap.Error(err), zap.Int("addresses", len(req.Addresses)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check addresses"})
		return
	}

	c.JSON(http.StatusOK, batch)
}

// @Summary Get Check Result
// @Tags Check
// @Description Fetch a previously computed check or batch result by request id
// @ModuleID getCheckResult
// @Accept  json
// @Produce  json
// @Param request_id path string true "request id returned by a check"
// @Security ApiKeyAuth
// @Success 200 {object} domain.SybilCheckResult
// @Failure 401 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /check/{request_id} [get]
func (h *Handler) getCheckResult(c *gin.Context) {
	requestID := c.Param("request_id")

	raw, err := h.services.Sybil.GetResult(c.Request.Context(), requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, ResultNotFoundCode)
			return
		}
		logger.Error("fetch check result failed", zap.Error(err), zap.String("request_id", requestID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch result"})
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}
