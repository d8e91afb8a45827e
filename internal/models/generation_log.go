package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation operation types.
const (
	OperationFoundation = "foundation"
	OperationChapter    = "chapter"
	OperationUniverse   = "universe"
)

// Generation log statuses.
const (
	GenStatusSuccess      = "success"
	GenStatusFailed       = "failed"
	GenStatusDeductFailed = "deduct_failed"
)

// GenerationLog is an append-only record of a single LLM call. Rows are never
// mutated after insert; earnings and usage analytics aggregate over them.
type GenerationLog struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           uuid.UUID  `db:"user_id" json:"user_id"`
	StoryID          *uuid.UUID `db:"story_id" json:"story_id,omitempty"`
	Operation        string     `db:"operation" json:"operation"`
	Model            string     `db:"model" json:"model"`
	PromptTokens     int        `db:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int        `db:"completion_tokens" json:"completion_tokens"`
	TotalTokens      int        `db:"total_tokens" json:"total_tokens"`
	CostUSD          float64    `db:"cost_usd" json:"cost_usd"`
	CreditsCharged   int        `db:"credits_charged" json:"credits_charged"`
	Status           string     `db:"status" json:"status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// UsageDay is one bucket of the last-30-days usage series.
type UsageDay struct {
	Day         time.Time `db:"day" json:"day"`
	Operations  int       `db:"operations" json:"operations"`
	TotalTokens int       `db:"total_tokens" json:"total_tokens"`
	CostUSD     float64   `db:"cost_usd" json:"cost_usd"`
	Credits     int       `db:"credits" json:"credits"`
}

// StoryEarnings is the per-story breakdown used by the enhanced creator view.
type StoryEarnings struct {
	StoryID     uuid.UUID `db:"story_id" json:"story_id"`
	Title       string    `db:"title" json:"title"`
	Status      string    `db:"status" json:"status"`
	Operations  int       `db:"operations" json:"operations"`
	TotalTokens int       `db:"total_tokens" json:"total_tokens"`
	CostUSD     float64   `db:"cost_usd" json:"cost_usd"`
}
