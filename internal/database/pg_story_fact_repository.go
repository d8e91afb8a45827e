package database

import (
	"context"
	"fmt"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgStoryFactRepository implements StoryFactRepository
var _ interfaces.StoryFactRepository = (*pgStoryFactRepository)(nil)

type pgStoryFactRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryFactRepository creates a new PostgreSQL-backed StoryFactRepository.
func NewPgStoryFactRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryFactRepository {
	return &pgStoryFactRepository{
		db:     db,
		logger: logger.Named("PgStoryFactRepo"),
	}
}

// Upsert replaces the value on (story_id, fact_type, fact_key) conflict.
func (r *pgStoryFactRepository) Upsert(ctx context.Context, fact *models.StoryFact) error {
	query := `INSERT INTO story_facts (story_id, fact_type, fact_key, fact_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (story_id, fact_type, fact_key)
		DO UPDATE SET fact_value = EXCLUDED.fact_value, extracted_at = now()
		RETURNING id, extracted_at`
	err := r.db.QueryRow(ctx, query, fact.StoryID, fact.FactType, fact.FactKey, fact.FactValue).
		Scan(&fact.ID, &fact.ExtractedAt)
	if err != nil {
		r.logger.Error("Failed to upsert story fact", zap.Error(err),
			zap.String("storyID", fact.StoryID.String()),
			zap.String("factType", fact.FactType),
			zap.String("factKey", fact.FactKey),
		)
		return fmt.Errorf("failed to upsert story fact: %w", err)
	}
	return nil
}

// ListByStory returns all facts of a story grouped by type then key.
func (r *pgStoryFactRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryFact, error) {
	query := `SELECT id, story_id, fact_type, fact_key, fact_value, extracted_at
		FROM story_facts WHERE story_id = $1
		ORDER BY fact_type, fact_key`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		r.logger.Error("Failed to list story facts", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to list story facts: %w", err)
	}
	defer rows.Close()

	var facts []models.StoryFact
	for rows.Next() {
		var f models.StoryFact
		if err := rows.Scan(&f.ID, &f.StoryID, &f.FactType, &f.FactKey, &f.FactValue, &f.ExtractedAt); err != nil {
			return nil, fmt.Errorf("failed to scan story fact row: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story fact rows: %w", err)
	}
	return facts, nil
}
