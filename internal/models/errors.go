package models

import "errors"

// Application-wide standard errors
var (
	// Common resource errors
	ErrNotFound        = errors.New("resource not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrReportNotFound  = errors.New("error report not found")

	// Authentication / authorization
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
	ErrCreatorRequired    = errors.New("creator access required")
	ErrPremiumRequired    = errors.New("premium subscription required")
	ErrNotStoryOwner      = errors.New("story belongs to another user")
	ErrAdminRequired      = errors.New("admin access required")

	// Billing / credits
	ErrInsufficientTokens = errors.New("insufficient tokens for this operation")

	// Generation pipeline
	ErrAIServiceUnavailable = errors.New("generation service unavailable")
	ErrContentBlocked       = errors.New("content blocked by moderation")
	ErrFoundationInvalid    = errors.New("generated foundation failed schema validation")
	ErrChapterConflict      = errors.New("chapter number already exists for this story")

	// Story lifecycle
	ErrInvalidTransition = errors.New("invalid story status transition")
	ErrStoryNotDeletable = errors.New("only draft stories can be deleted")

	// General request errors
	ErrInvalidInput   = errors.New("invalid input data")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
)
