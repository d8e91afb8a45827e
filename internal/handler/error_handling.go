package handler

import (
	"errors"
	"net/http"

	"infinite-pages/internal/models"
	"infinite-pages/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError maps service-layer errors onto HTTP statuses and the
// standard error body, then aborts the request.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "Validation failed",
			Details: validationErr.Result.Errors,
		}
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrTokenInvalid):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Authentication required"}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Token has expired"}
	case errors.Is(err, models.ErrCreatorRequired):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Creator access required"}
	case errors.Is(err, models.ErrPremiumRequired):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Premium subscription required"}
	case errors.Is(err, models.ErrAdminRequired):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Admin access required"}
	case errors.Is(err, models.ErrNotStoryOwner), errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Access denied"}
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Story not found"}
	case errors.Is(err, models.ErrChapterNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Chapter not found"}
	case errors.Is(err, models.ErrProfileNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Profile not found"}
	case errors.Is(err, models.ErrReportNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Error report not found"}
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Resource not found"}
	case errors.Is(err, models.ErrChapterConflict):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Chapter number already exists"}
	case errors.Is(err, models.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrStoryNotDeletable):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: "Only draft stories can be deleted"}
	case errors.Is(err, models.ErrInsufficientTokens):
		statusCode = http.StatusPaymentRequired
		errResp = models.ErrorResponse{Code: models.ErrCodeInsufficientTokens, Message: "Insufficient tokens for this operation"}
	case errors.Is(err, models.ErrContentBlocked):
		statusCode = http.StatusUnprocessableEntity
		errResp = models.ErrorResponse{Code: models.ErrCodeContentBlocked, Message: "Content blocked by moderation"}
	case errors.Is(err, models.ErrAIServiceUnavailable), errors.Is(err, models.ErrFoundationInvalid):
		statusCode = http.StatusServiceUnavailable
		errResp = models.ErrorResponse{Code: models.ErrCodeAIUnavailable, Message: "Generation service unavailable, please retry"}
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
