package models

import "time"

// Prompt template keys. One template per creation mode plus the chapter and
// fact-extraction prompts; built-in defaults apply when the row is missing.
const (
	PromptKeyStoryFoundation  = "story_foundation"
	PromptKeyNovelFoundation  = "novel_foundation"
	PromptKeyChoiceFoundation = "choice_foundation"
	PromptKeyAIBuilder        = "ai_builder"
	PromptKeyChapter          = "chapter"
	PromptKeyUniverse         = "universe_setup"
)

// Prompt represents a stored system prompt template.
type Prompt struct {
	ID        int64     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Language  string    `db:"language" json:"language"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
