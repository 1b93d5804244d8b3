package handler

import (
	"context"
	"errors"
	"net/http"

	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/models"

	"github.com/gin-gonic/gin"
)

// ValidateHandler handles address validation requests.
type ValidateHandler struct {
	service ValidationService
}

// ValidationService interface for dependency injection.
type ValidationService interface {
	Validate(ctx context.Context, address string) (*models.GeocodeResult, *models.ValidationResult, error)
}

// NewValidateHandler creates a new validation handler.
func NewValidateHandler(svc ValidationService) *ValidateHandler {
	return &ValidateHandler{service: svc}
}

type validateRequest struct {
	Address string `json:"address" binding:"required"`
}

type validateResponse struct {
	Result     *models.GeocodeResult    `json:"result"`
	Validation *models.ValidationResult `json:"validation"`
}

// Validate handles POST /v1/validate-address requests.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'address'"})
		return
	}

	result, validation, err := h.service.Validate(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, geocoder.ErrAllProvidersFailed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address could not be resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, validateResponse{Result: result, Validation: validation})
}
