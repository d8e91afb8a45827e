package models

import (
	"time"

	"github.com/google/uuid"
)

// Story fact types extracted from foundations and chapters.
const (
	FactTypeCharacter = "character"
	FactTypeLocation  = "location"
	FactTypePlotEvent = "plot_event"
	FactTypeTheme     = "theme"
)

// StoryFact is one cached fact about a story. Values are stored SFSL-encoded
// so that large casts fit into later prompt budgets.
type StoryFact struct {
	ID          uuid.UUID `db:"id" json:"id"`
	StoryID     uuid.UUID `db:"story_id" json:"story_id"`
	FactType    string    `db:"fact_type" json:"fact_type"`
	FactKey     string    `db:"fact_key" json:"fact_key"`
	FactValue   string    `db:"fact_value" json:"fact_value"`
	ExtractedAt time.Time `db:"extracted_at" json:"extracted_at"`
}
