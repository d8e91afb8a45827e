package handler

import (
	"net/http"

	"infinite-pages/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CreatorHandler serves the creator earnings and usage analytics endpoints.
type CreatorHandler struct {
	creators *service.CreatorService
	logger   *zap.Logger
}

// NewCreatorHandler creates a CreatorHandler.
func NewCreatorHandler(creators *service.CreatorService, logger *zap.Logger) *CreatorHandler {
	return &CreatorHandler{
		creators: creators,
		logger:   logger.Named("CreatorHandler"),
	}
}

// Earnings handles GET /api/creators/earnings. The view=enhanced query
// switches to the premium breakdown.
func (h *CreatorHandler) Earnings(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if c.Query("view") == "enhanced" {
		resp, err := h.creators.EnhancedEarnings(c.Request.Context(), userID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	resp, err := h.creators.Earnings(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Usage handles GET /api/analytics/usage.
func (h *CreatorHandler) Usage(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	resp, err := h.creators.Usage(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
