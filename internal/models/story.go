package models

import (
	"time"

	"github.com/google/uuid"
)

// Content creation modes.
const (
	ModeStory      = "story"
	ModeNovel      = "novel"
	ModeChoiceBook = "choice-book"
	ModeAIBuilder  = "ai-builder"
)

// KnownModes lists every supported creation mode.
var KnownModes = []string{ModeStory, ModeNovel, ModeChoiceBook, ModeAIBuilder}

// IsKnownMode reports whether mode is one of the supported creation modes.
func IsKnownMode(mode string) bool {
	for _, m := range KnownModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Story lifecycle statuses.
const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPublished  = "published"
	StatusError      = "error"
)

// statusTransitions is the allowed forward edges of the story lifecycle.
// Error is reachable from any state; nothing leaves published.
var statusTransitions = map[string][]string{
	StatusDraft:      {StatusInProgress, StatusError},
	StatusInProgress: {StatusCompleted, StatusError},
	StatusCompleted:  {StatusPublished, StatusInProgress, StatusError},
	StatusPublished:  {},
	StatusError:      {StatusDraft, StatusInProgress},
}

// CanTransition reports whether a story may move from one status to another.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Story is the root entity of a generation flow. The foundation column holds
// the validated structured outline produced by the first generation call.
type Story struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Title           string     `db:"title" json:"title"`
	Genre           string     `db:"genre" json:"genre"`
	Premise         string     `db:"premise" json:"premise"`
	Mode            string     `db:"mode" json:"mode"`
	Foundation      *Foundation `db:"foundation" json:"foundation,omitempty"`
	Status          string     `db:"status" json:"status"`
	WordCount       int        `db:"word_count" json:"word_count"`
	ChapterCount    int        `db:"chapter_count" json:"chapter_count"`
	TotalTokensUsed int        `db:"total_tokens_used" json:"total_tokens_used"`
	TotalCostUSD    float64    `db:"total_cost_usd" json:"total_cost_usd"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Chapter belongs to exactly one story; chapter_number is unique and
// order-significant within the story.
type Chapter struct {
	ID                uuid.UUID `db:"id" json:"id"`
	StoryID           uuid.UUID `db:"story_id" json:"story_id"`
	ChapterNumber     int       `db:"chapter_number" json:"chapter_number"`
	Title             string    `db:"title" json:"title"`
	Content           string    `db:"content" json:"content"`
	Summary           string    `db:"summary" json:"summary,omitempty"`
	WordCount         int       `db:"word_count" json:"word_count"`
	TokensUsed        int       `db:"tokens_used" json:"tokens_used"`
	GenerationCostUSD float64   `db:"generation_cost_usd" json:"generation_cost_usd"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
