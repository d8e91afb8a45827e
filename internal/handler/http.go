package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything RegisterRoutes needs.
type Handlers struct {
	Story     *StoryHandler
	Creator   *CreatorHandler
	Admin     *AdminHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes mounts the API surface. authMW must populate the user_id
// context key; optionalAuthMW does the same only when a valid token is
// present. globalLimit and generationLimit run after auth so the limiter
// keys by user. generationLimit guards only the endpoints that spend tokens.
func RegisterRoutes(router *gin.Engine, h Handlers, authMW, optionalAuthMW, globalLimit, generationLimit gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Progress subscriptions authenticate via query token inside the handler.
	router.GET("/api/ws/progress", h.WebSocket.ServeWS)

	// Error ingest accepts anonymous reports; a valid token only attributes
	// the report to its user.
	router.POST("/api/errors", optionalAuthMW, globalLimit, h.Admin.ReportError)

	api := router.Group("/api")
	api.Use(authMW, globalLimit)
	{
		stories := api.Group("/stories")
		{
			stories.POST("", generationLimit, h.Story.CreateStory)
			stories.GET("", h.Story.ListStories)
			stories.GET("/:id", h.Story.GetStory)
			stories.PATCH("/:id", h.Story.UpdateStory)
			stories.DELETE("/:id", h.Story.DeleteStory)

			stories.POST("/:id/chapters", generationLimit, h.Story.GenerateChapter)
			stories.GET("/:id/chapters", h.Story.ListChapters)
			stories.GET("/:id/chapters/:number", h.Story.GetChapter)

			stories.POST("/:id/universe/setup", generationLimit, h.Story.CreateUniverse)
			stories.GET("/:id/universe/setup", h.Story.GetUniverse)
			stories.PATCH("/:id/universe/setup", h.Story.PatchUniverse)
		}

		api.GET("/creators/earnings", h.Creator.Earnings)
		api.GET("/analytics/usage", h.Creator.Usage)

		admin := api.Group("/admin")
		{
			admin.GET("/errors", h.Admin.ListReports)
			admin.PATCH("/errors/:id", h.Admin.ResolveReport)
		}
	}
}
