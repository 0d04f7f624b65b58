package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrarejimmyz/SybilShield/internal/domain"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
)

func (h *Handler) initVerifyRoutes(api *gin.RouterGroup) {
	verify := api.Group("/verify", h.apiKeyMiddleware)
	{
		verify.GET("/methods", h.listVerificationMethods)
		verify.POST("", h.startVerification)
		verify.GET("/:verification_id", h.checkVerification)
		verify.POST("/:verification_id/complete", h.completeVerification)
		verify.GET("/history/:address", h.verificationHistory)
	}
}

type startVerificationRequest struct {
	Address          string `json:"address" binding:"required,aptosaddress"`
	VerificationType string `json:"verification_type" binding:"required"`
	CallbackURL      string `json:"callback_url" binding:"omitempty,url"`
}

type completeVerificationRequest struct {
	Proof json.RawMessage `json:"proof" binding:"required"`
}

// @Summary List Verification Methods
// @Tags Verify
// @Description List the verification method kinds this deployment supports
// @ModuleID listVerificationMethods
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} map[string][]string
// @Failure 401 {object} ErrorStruct
// @Router /verify/methods [get]
func (h *Handler) listVerificationMethods(c *gin.Context) {
	kinds := h.services.Verifications.Methods()
	methods := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		methods = append(methods, string(kind))
	}

	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// @Summary Start Verification
// @Tags Verify
// @Description Begin a verification for an address and receive the challenge to fulfil
// @ModuleID startVerification
// @Accept  json
// @Produce  json
// @Param input body startVerificationRequest true "verification parameters"
// @Security ApiKeyAuth
// @Success 201 {object} domain.VerificationRecord
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verify [post]
func (h *Handler) startVerification(c *gin.Context) {
	var req startVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	record, err := h.services.Verifications.Start(c.Request.Context(),
		domain.MethodKind(req.VerificationType), req.Address, req.CallbackURL)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedMethod) {
			errorResponse(c, http.StatusBadRequest, UnsupportedMethodCode)
			return
		}
		logger.Error("start verification failed", zap.Error(err),
			zap.String("address", req.Address), zap.String("type", req.VerificationType))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start verification"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// @Summary Check Verification
// @Tags Verify
// @Description Report the current state of a verification
// @ModuleID checkVerification
// @Produce  json
// @Param verification_id path string true "verification id"
// @Security ApiKeyAuth
// @Success 200 {object} domain.VerificationRecord
// @Failure 401 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verify/{verification_id} [get]
func (h *Handler) checkVerification(c *gin.Context) {
	verificationID := c.Param("verification_id")

	record, err := h.services.Verifications.Check(c.Request.Context(), verificationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, VerificationNotFoundCode)
			return
		}
		logger.Error("check verification failed", zap.Error(err), zap.String("verification_id", verificationID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check verification"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// @Summary Complete Verification
// @Tags Verify
// @Description Submit proof for a pending verification. Settled verifications return their final state unchanged.
// @ModuleID completeVerification
// @Accept  json
// @Produce  json
// @Param verification_id path string true "verification id"
// @Param input body completeVerificationRequest true "method specific proof"
// @Security ApiKeyAuth
// @Success 200 {object} domain.VerificationRecord
// @Failure 400 {object} ValidationErrorStruct
// @Failure 401 {object} ErrorStruct
// @Failure 404 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verify/{verification_id}/complete [post]
func (h *Handler) completeVerification(c *gin.Context) {
	verificationID := c.Param("verification_id")

	var req completeVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	record, err := h.services.Verifications.Complete(c.Request.Context(), verificationID, req.Proof)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			errorResponse(c, http.StatusNotFound, VerificationNotFoundCode)
			return
		}
		logger.Error("complete verification failed", zap.Error(err), zap.String("verification_id", verificationID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete verification"})
		return
	}

	if record.Status == domain.StatusExpired {
		errorResponse(c, http.StatusBadRequest, VerificationExpiredCode)
		return
	}

	c.JSON(http.StatusOK, record)
}

// @Summary Verification History
// @Tags Verify
// @Description List an address's verifications, newest first
// @ModuleID verificationHistory
// @Produce  json
// @Param address path string true "aptos address"
// @Security ApiKeyAuth
// @Success 200 {object} map[string][]domain.VerificationRecord
// @Failure 401 {object} ErrorStruct
// @Failure 500 {object} ErrorStruct
// @Router /verify/history/{address} [get]
func (h *Handler) verificationHistory(c *gin.Context) {
	address := c.Param("address")

	records, err := h.services.Verifications.History(c.Request.Context(), address)
	if err != nil {
		logger.Error("verification history failed", zap.Error(err), zap.String("address", address))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":       address,
		"verifications": records,
	})
}
