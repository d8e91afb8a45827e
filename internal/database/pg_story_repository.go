package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyFields = `id, user_id, title, genre, premise, mode, foundation, status, word_count, chapter_count, total_tokens_used, total_cost_usd, created_at, updated_at`

func scanStory(row pgx.Row) (*models.Story, error) {
	s := &models.Story{}
	var foundationRaw []byte
	err := row.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Genre, &s.Premise, &s.Mode,
		&foundationRaw, &s.Status, &s.WordCount, &s.ChapterCount,
		&s.TotalTokensUsed, &s.TotalCostUSD, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(foundationRaw) > 0 {
		f := &models.Foundation{}
		if err := json.Unmarshal(foundationRaw, f); err != nil {
			return nil, fmt.Errorf("failed to decode stored foundation: %w", err)
		}
		s.Foundation = f
	}
	return s, nil
}

// Create inserts a new draft story.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	query := `INSERT INTO stories (user_id, title, genre, premise, mode, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		story.UserID, story.Title, story.Genre, story.Premise, story.Mode, story.Status,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", zap.Error(err), zap.String("userID", story.UserID.String()))
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("userID", story.UserID.String()),
		zap.String("mode", story.Mode),
	)
	return nil
}

// GetByID returns models.ErrStoryNotFound when no row exists.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyFields + ` FROM stories WHERE id = $1`
	story, err := scanStory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// ListByUser returns up to limit stories created before the cursor position,
// newest first. A zero cursor time means "from the top".
func (r *pgStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.Story, error) {
	var rows pgx.Rows
	var err error
	if cursorTime.IsZero() {
		query := `SELECT ` + storyFields + ` FROM stories
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		rows, err = r.db.Query(ctx, query, userID, limit)
	} else {
		query := `SELECT ` + storyFields + ` FROM stories
			WHERE user_id = $1 AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`
		rows, err = r.db.Query(ctx, query, userID, cursorTime, cursorID, limit)
	}
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]models.Story, 0, limit)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, *story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story rows: %w", err)
	}
	return stories, nil
}

// UpdateStatus writes the story lifecycle status.
func (r *pgStoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE stories SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update story status", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to update story status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Debug("Story status updated", zap.String("storyID", id.String()), zap.String("status", status))
	return nil
}

// UpdateTitle writes the story title.
func (r *pgStoryRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE stories SET title = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, title)
	if err != nil {
		return fmt.Errorf("failed to update story title: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// SetFoundation stores the validated foundation, cost accounting and marks
// the story completed in a single statement.
func (r *pgStoryRepository) SetFoundation(ctx context.Context, id uuid.UUID, foundation *models.Foundation, tokensUsed int, costUSD float64) error {
	raw, err := json.Marshal(foundation)
	if err != nil {
		return fmt.Errorf("failed to encode foundation: %w", err)
	}
	query := `UPDATE stories
		SET foundation = $2,
		    title = CASE WHEN title = '' THEN $3 ELSE title END,
		    status = $4,
		    total_tokens_used = total_tokens_used + $5,
		    total_cost_usd = total_cost_usd + $6,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, raw, foundation.Title, models.StatusCompleted, tokensUsed, costUSD)
	if err != nil {
		r.logger.Error("Failed to set foundation", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to set foundation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// UpdateUniverse replaces the universe section inside the foundation jsonb.
func (r *pgStoryRepository) UpdateUniverse(ctx context.Context, id uuid.UUID, universe *models.UniverseSetup) error {
	raw, err := json.Marshal(universe)
	if err != nil {
		return fmt.Errorf("failed to encode universe setup: %w", err)
	}
	query := `UPDATE stories
		SET foundation = jsonb_set(COALESCE(foundation, '{}'::jsonb), '{universe}', $2::jsonb),
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, raw)
	if err != nil {
		r.logger.Error("Failed to update universe setup", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to update universe setup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// AddChapterStats bumps the story counters after a chapter lands.
func (r *pgStoryRepository) AddChapterStats(ctx context.Context, id uuid.UUID, wordCount, tokensUsed int, costUSD float64) error {
	query := `UPDATE stories
		SET chapter_count = chapter_count + 1,
		    word_count = word_count + $2,
		    total_tokens_used = total_tokens_used + $3,
		    total_cost_usd = total_cost_usd + $4,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, wordCount, tokensUsed, costUSD)
	if err != nil {
		r.logger.Error("Failed to add chapter stats", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to add chapter stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// Delete removes the story row; chapters, facts and logs cascade.
func (r *pgStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id.String()))
	return nil
}

// CountByUserAndStatus counts the user's stories in the given status.
func (r *pgStoryRepository) CountByUserAndStatus(ctx context.Context, userID uuid.UUID, status string) (int, error) {
	var count int
	query := `SELECT count(*) FROM stories WHERE user_id = $1 AND status = $2`
	if err := r.db.QueryRow(ctx, query, userID, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return count, nil
}
