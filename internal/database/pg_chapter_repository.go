package database

import (
	"context"
	"errors"
	"fmt"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgChapterRepository implements ChapterRepository
var _ interfaces.ChapterRepository = (*pgChapterRepository)(nil)

type pgChapterRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgChapterRepository creates a new PostgreSQL-backed ChapterRepository.
func NewPgChapterRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ChapterRepository {
	return &pgChapterRepository{
		db:     db,
		logger: logger.Named("PgChapterRepo"),
	}
}

const chapterFields = `id, story_id, chapter_number, title, content, summary, word_count, tokens_used, generation_cost_usd, created_at, updated_at`

// Create inserts a chapter. A duplicate (story_id, chapter_number) pair maps
// to models.ErrChapterConflict.
func (r *pgChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	query := `INSERT INTO chapters (story_id, chapter_number, title, content, summary, word_count, tokens_used, generation_cost_usd)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		chapter.StoryID, chapter.ChapterNumber, chapter.Title, chapter.Content,
		chapter.Summary, chapter.WordCount, chapter.TokensUsed, chapter.GenerationCostUSD,
	).Scan(&chapter.ID, &chapter.CreatedAt, &chapter.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			r.logger.Warn("Duplicate chapter number",
				zap.String("storyID", chapter.StoryID.String()),
				zap.Int("chapterNumber", chapter.ChapterNumber),
			)
			return models.ErrChapterConflict
		}
		r.logger.Error("Failed to create chapter", zap.Error(err), zap.String("storyID", chapter.StoryID.String()))
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	r.logger.Info("Chapter created",
		zap.String("chapterID", chapter.ID.String()),
		zap.String("storyID", chapter.StoryID.String()),
		zap.Int("chapterNumber", chapter.ChapterNumber),
	)
	return nil
}

// GetByNumber retrieves one chapter of a story by its order number.
func (r *pgChapterRepository) GetByNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error) {
	query := `SELECT ` + chapterFields + ` FROM chapters WHERE story_id = $1 AND chapter_number = $2`
	c := &models.Chapter{}
	err := r.db.QueryRow(ctx, query, storyID, number).Scan(
		&c.ID, &c.StoryID, &c.ChapterNumber, &c.Title, &c.Content, &c.Summary,
		&c.WordCount, &c.TokensUsed, &c.GenerationCostUSD, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrChapterNotFound
		}
		r.logger.Error("Failed to get chapter", zap.Error(err), zap.String("storyID", storyID.String()), zap.Int("number", number))
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}
	return c, nil
}

// ListByStory returns all chapters of a story in order.
func (r *pgChapterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	query := `SELECT ` + chapterFields + ` FROM chapters WHERE story_id = $1 ORDER BY chapter_number ASC`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		r.logger.Error("Failed to list chapters", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var c models.Chapter
		if err := rows.Scan(
			&c.ID, &c.StoryID, &c.ChapterNumber, &c.Title, &c.Content, &c.Summary,
			&c.WordCount, &c.TokensUsed, &c.GenerationCostUSD, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chapter rows: %w", err)
	}
	return chapters, nil
}

// CountByStory returns the number of chapters a story has.
func (r *pgChapterRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chapters WHERE story_id = $1`, storyID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count chapters", zap.Error(err), zap.String("storyID", storyID.String()))
		return 0, fmt.Errorf("failed to count chapters: %w", err)
	}
	return count, nil
}
