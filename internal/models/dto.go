package models

import (
	"time"

	"github.com/google/uuid"
)

// Machine-readable error codes returned alongside HTTP statuses.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInsufficientTokens = "INSUFFICIENT_TOKENS"
	ErrCodeContentBlocked     = "CONTENT_BLOCKED"
	ErrCodeAIUnavailable      = "AI_UNAVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse is the standard error body for every endpoint.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// CreateStoryRequest is the unified creation payload for all four modes.
type CreateStoryRequest struct {
	Mode        string `json:"mode"`
	Title       string `json:"title"`
	Genre       string `json:"genre"`
	Premise     string `json:"premise"`
	Length      string `json:"length"` // short, medium, long

	// Novel mode.
	Description  string `json:"description,omitempty"`
	ChapterCount int    `json:"chapter_count,omitempty"`

	// Choice-book mode.
	EndingCount int `json:"ending_count,omitempty"`

	// AI-builder mode.
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// ValidationResult carries the outcome of per-mode form validation.
// Errors block the request; warnings are advisory and returned to the client.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// CreateChapterRequest asks for the next chapter of a story.
type CreateChapterRequest struct {
	Title    string `json:"title,omitempty"`
	Guidance string `json:"guidance,omitempty"`
}

// UpdateStoryRequest mutates title and/or lifecycle status.
type UpdateStoryRequest struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

// UniverseSetupPatch is the PATCH payload for the universe endpoints; only
// non-nil fields are merged.
type UniverseSetupPatch struct {
	WorldName   *string   `json:"world_name,omitempty"`
	Rules       *[]string `json:"rules,omitempty"`
	Lore        *string   `json:"lore,omitempty"`
	Constraints *[]string `json:"constraints,omitempty"`
}

// StoryResponse is the creation/generation response: the story plus billing
// information and any non-blocking validation warnings.
type StoryResponse struct {
	Story          *Story   `json:"story"`
	CreditsCharged int      `json:"credits_charged"`
	TokensUsed     int      `json:"tokens_used"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ChapterResponse is returned by chapter generation.
type ChapterResponse struct {
	Chapter        *Chapter `json:"chapter"`
	CreditsCharged int      `json:"credits_charged"`
	TokensUsed     int      `json:"tokens_used"`
}

// StoryListResponse is a cursor-paginated page of stories.
type StoryListResponse struct {
	Stories    []Story `json:"stories"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// EarningsResponse is the standard creator earnings view.
type EarningsResponse struct {
	TotalTokens      int     `json:"total_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
	PublishedStories int     `json:"published_stories"`
	EstimatedPayout  float64 `json:"estimated_payout_usd"`
}

// EnhancedEarningsResponse adds per-story breakdown and a daily series.
type EnhancedEarningsResponse struct {
	EarningsResponse
	Stories []StoryEarnings `json:"stories"`
	Daily   []UsageDay      `json:"daily"`
}

// UsageResponse is the per-user analytics summary.
type UsageResponse struct {
	TokensRemaining int        `json:"tokens_remaining"`
	TokensUsedTotal int        `json:"tokens_used_total"`
	StoriesCreated  int        `json:"stories_created"`
	WordsGenerated  int        `json:"words_generated"`
	Daily           []UsageDay `json:"daily"`
}

// ErrorReportRequest is the client error ingest payload.
type ErrorReportRequest struct {
	Source    string `json:"source"`
	Message   string `json:"message"`
	Stack     string `json:"stack,omitempty"`
	Severity  string `json:"severity"`
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ErrorReportListResponse is a cursor-paginated page of error reports.
type ErrorReportListResponse struct {
	Reports    []ErrorReport `json:"reports"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// Generation progress states published to the progress queue.
const (
	ProgressStarted   = "started"
	ProgressStep      = "step"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// ProgressEvent is one generation lifecycle update. Step counters are a
// coarse UI aid, not a scheduler contract.
type ProgressEvent struct {
	StoryID    uuid.UUID `json:"story_id"`
	UserID     uuid.UUID `json:"user_id"`
	State      string    `json:"state"`
	Step       int       `json:"step"`
	TotalSteps int       `json:"total_steps"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
