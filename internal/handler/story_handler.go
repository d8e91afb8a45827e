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

// StoryHandler serves the story, chapter and universe endpoints.
type StoryHandler struct {
	stories *service.StoryService
	logger  *zap.Logger
}

// NewStoryHandler creates a StoryHandler.
func NewStoryHandler(stories *service.StoryService, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		logger:  logger.Named("StoryHandler"),
	}
}

func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get(ctxUserIDKey)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return uuid.Nil, false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		handleServiceError(c, models.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func storyIDFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleServiceError(c, models.ErrStoryNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// CreateStory handles POST /api/stories.
func (h *StoryHandler) CreateStory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}

	resp, err := h.stories.CreateStory(c.Request.Context(), userID, req)
	if err != nil {
		generationRequestsTotal.WithLabelValues(models.OperationFoundation, "failure").Inc()
		handleServiceError(c, err)
		return
	}
	generationRequestsTotal.WithLabelValues(models.OperationFoundation, "success").Inc()
	c.JSON(http.StatusCreated, resp)
}

// ListStories handles GET /api/stories.
func (h *StoryHandler) ListStories(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
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

	resp, err := h.stories.ListStories(c.Request.Context(), userID, c.Query("cursor"), limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetStory handles GET /api/stories/:id.
func (h *StoryHandler) GetStory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	story, err := h.stories.GetStory(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// UpdateStory handles PATCH /api/stories/:id.
func (h *StoryHandler) UpdateStory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	var req models.UpdateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}
	if req.Title == nil && req.Status == nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}

	story, err := h.stories.UpdateStory(c.Request.Context(), userID, storyID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// DeleteStory handles DELETE /api/stories/:id.
func (h *StoryHandler) DeleteStory(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	if err := h.stories.DeleteStory(c.Request.Context(), userID, storyID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateChapter handles POST /api/stories/:id/chapters.
func (h *StoryHandler) GenerateChapter(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	var req models.CreateChapterRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleServiceError(c, models.ErrInvalidInput)
			return
		}
	}

	resp, err := h.stories.GenerateChapter(c.Request.Context(), userID, storyID, req)
	if err != nil {
		generationRequestsTotal.WithLabelValues(models.OperationChapter, "failure").Inc()
		handleServiceError(c, err)
		return
	}
	generationRequestsTotal.WithLabelValues(models.OperationChapter, "success").Inc()
	c.JSON(http.StatusCreated, resp)
}

// ListChapters handles GET /api/stories/:id/chapters.
func (h *StoryHandler) ListChapters(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	chapters, err := h.stories.ListChapters(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chapters})
}

// GetChapter handles GET /api/stories/:id/chapters/:number.
func (h *StoryHandler) GetChapter(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		handleServiceError(c, models.ErrChapterNotFound)
		return
	}

	chapter, err := h.stories.GetChapter(c.Request.Context(), userID, storyID, number)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

// CreateUniverse handles POST /api/stories/:id/universe/setup.
func (h *StoryHandler) CreateUniverse(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	universe, err := h.stories.CreateUniverse(c.Request.Context(), userID, storyID)
	if err != nil {
		generationRequestsTotal.WithLabelValues(models.OperationUniverse, "failure").Inc()
		handleServiceError(c, err)
		return
	}
	generationRequestsTotal.WithLabelValues(models.OperationUniverse, "success").Inc()
	c.JSON(http.StatusCreated, universe)
}

// GetUniverse handles GET /api/stories/:id/universe/setup.
func (h *StoryHandler) GetUniverse(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	universe, err := h.stories.GetUniverse(c.Request.Context(), userID, storyID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, universe)
}

// PatchUniverse handles PATCH /api/stories/:id/universe/setup.
func (h *StoryHandler) PatchUniverse(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}
	storyID, ok := storyIDFromPath(c)
	if !ok {
		return
	}

	var patch models.UniverseSetupPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		handleServiceError(c, models.ErrInvalidInput)
		return
	}

	universe, err := h.stories.PatchUniverse(c.Request.Context(), userID, storyID, patch)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, universe)
}
