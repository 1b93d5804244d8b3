// Package handler exposes the pipeline over HTTP for the dashboard.
package handler

import (
	"context"
	"errors"
	"net/http"

	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/models"

	"github.com/gin-gonic/gin"
)

// ArrivalHandler handles arrival-guide generation requests.
type ArrivalHandler struct {
	service GuideService
}

// GuideService interface for dependency injection.
type GuideService interface {
	Generate(ctx context.Context, address string, section models.Section) (*models.ArrivalGuide, error)
}

// NewArrivalHandler creates a new arrival-guide handler.
func NewArrivalHandler(svc GuideService) *ArrivalHandler {
	return &ArrivalHandler{service: svc}
}

type generateRequest struct {
	Address string `json:"address" binding:"required"`
	Section string `json:"section"`
}

// Generate handles POST /v1/arrival-guide requests. The response always
// distinguishes "we could not find that address" (404) from "we found it but
// could not generate directions yet" (200 with null instructions).
func (h *ArrivalHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field 'address'"})
		return
	}

	section, err := models.ParseSection(req.Section)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section, expected one of: road, plane, train, parking"})
		return
	}

	guide, err := h.service.Generate(c.Request.Context(), req.Address, section)
	if err != nil {
		if errors.Is(err, geocoder.ErrAllProvidersFailed) {
			c.JSON(http.StatusNotFound, gin.H{"error": "address could not be resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, guide)
}
