package interfaces

import (
	"context"
	"time"

	"infinite-pages/internal/models"

	"github.com/google/uuid"
)

// ProfileRepository persists the per-user ledger rows.
type ProfileRepository interface {
	// GetByID returns models.ErrProfileNotFound when no row exists.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// EnsureExists inserts a default free-tier profile for a new auth
	// identity; a no-op when the row already exists.
	EnsureExists(ctx context.Context, id uuid.UUID, email string) error

	// DeductTokens atomically charges the balance. The update only applies
	// when the remaining balance covers the cost; otherwise
	// models.ErrInsufficientTokens is returned and nothing changes.
	DeductTokens(ctx context.Context, id uuid.UUID, cost int) error

	// RecordUsage increments the cumulative usage counters. Token totals are
	// maintained by DeductTokens so the ledger has a single writer.
	RecordUsage(ctx context.Context, id uuid.UUID, wordsGenerated, storiesCreated int) error
}

// StoryRepository persists stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)

	// ListByUser returns up to limit stories created before the cursor
	// position, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.Story, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error

	// SetFoundation stores the validated foundation and marks the story
	// completed in one statement.
	SetFoundation(ctx context.Context, id uuid.UUID, foundation *models.Foundation, tokensUsed int, costUSD float64) error

	// UpdateUniverse replaces the universe section of the foundation.
	UpdateUniverse(ctx context.Context, id uuid.UUID, universe *models.UniverseSetup) error

	// AddChapterStats bumps the story counters after a chapter lands.
	AddChapterStats(ctx context.Context, id uuid.UUID, wordCount, tokensUsed int, costUSD float64) error

	// Delete removes the story and, via cascade, its chapters and facts.
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByUserAndStatus returns how many of the user's stories are in the
	// given status.
	CountByUserAndStatus(ctx context.Context, userID uuid.UUID, status string) (int, error)
}

// ChapterRepository persists chapters.
type ChapterRepository interface {
	// Create returns models.ErrChapterConflict on a duplicate
	// (story_id, chapter_number) pair.
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error)
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error)
	CountByStory(ctx context.Context, storyID uuid.UUID) (int, error)
}

// GenerationLogRepository appends and aggregates LLM call records.
type GenerationLogRepository interface {
	Create(ctx context.Context, entry *models.GenerationLog) error

	// UsageSeries returns daily aggregates for the user over the past days.
	UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]models.UsageDay, error)

	// Totals returns lifetime token and cost sums for the user.
	Totals(ctx context.Context, userID uuid.UUID) (totalTokens int, totalCostUSD float64, err error)

	// EarningsByStory returns the per-story breakdown for the creator view.
	EarningsByStory(ctx context.Context, userID uuid.UUID) ([]models.StoryEarnings, error)
}

// StoryFactRepository persists extracted story facts.
type StoryFactRepository interface {
	// Upsert replaces the value on (story_id, fact_type, fact_key) conflict.
	Upsert(ctx context.Context, fact *models.StoryFact) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryFact, error)
}

// ErrorReportRepository persists error reports for the admin panel.
type ErrorReportRepository interface {
	Create(ctx context.Context, report *models.ErrorReport) error
	List(ctx context.Context, severity string, resolved *bool, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.ErrorReport, error)
	SetResolved(ctx context.Context, id uuid.UUID, resolved bool) error
}

// RequestLogRepository appends HTTP audit rows.
type RequestLogRepository interface {
	Create(ctx context.Context, entry *models.RequestLog) error
}

// PromptRepository stores system prompt templates.
type PromptRepository interface {
	GetByKeyAndLanguage(ctx context.Context, key, language string) (*models.Prompt, error)
}
