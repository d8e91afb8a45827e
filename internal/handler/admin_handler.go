package handler

import (
	"net/http"
	"strconv"

	"infinite-pages/internal/models"
	"infinite-pages/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler serves error report ingest and the admin monitoring endpoints.
type AdminHandler struct {
	admin  *service.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger.Named("AdminHandler"),
	}
}

// ReportError handles POST /api/errors. The route runs behind optional auth,
// so the user attribution may be absent.
func (h *AdminHandler) ReportError(c *gin.Context) {
	var userID *uuid.UUID
	if raw, ok := c.Get(ctxUserIDKey); ok {
		if id, ok := raw.(uuid.UUID); ok {
			userID = &id
		}
	}

	var req models.ErrorReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}

	report, err := h.admin.ReportError(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports handles GET /api/admin/errors.
func (h *AdminHandler) ListReports(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var resolved *bool
	if raw := c.Query("resolved"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			handleServiceError(c, models.ErrBadRequest)
			return
		}
		resolved = &value
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			handleServiceError(c, models.ErrBadRequest)
			return
		}
		limit = parsed
	}

	resp, err := h.admin.ListReports(c.Request.Context(), userID, c.Query("severity"), resolved, c.Query("cursor"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveReport handles PATCH /api/admin/errors/:id.
func (h *AdminHandler) ResolveReport(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleServiceError(c, models.ErrReportNotFound)
		return
	}

	var req struct {
		Resolved *bool `json:"resolved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Resolved == nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}

	if err := h.admin.ResolveReport(c.Request.Context(), userID, reportID, *req.Resolved); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
