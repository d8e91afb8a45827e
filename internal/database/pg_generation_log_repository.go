package database

import (
	"context"
	"fmt"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgGenerationLogRepository implements GenerationLogRepository
var _ interfaces.GenerationLogRepository = (*pgGenerationLogRepository)(nil)

type pgGenerationLogRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgGenerationLogRepository creates a new PostgreSQL-backed GenerationLogRepository.
func NewPgGenerationLogRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.GenerationLogRepository {
	return &pgGenerationLogRepository{
		db:     db,
		logger: logger.Named("PgGenerationLogRepo"),
	}
}

// Create appends one generation record. Rows are never updated afterwards.
func (r *pgGenerationLogRepository) Create(ctx context.Context, entry *models.GenerationLog) error {
	query := `INSERT INTO generation_logs
		(user_id, story_id, operation, model, prompt_tokens, completion_tokens, total_tokens, cost_usd, credits_charged, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		entry.UserID, entry.StoryID, entry.Operation, entry.Model,
		entry.PromptTokens, entry.CompletionTokens, entry.TotalTokens,
		entry.CostUSD, entry.CreditsCharged, entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert generation log", zap.Error(err), zap.String("userID", entry.UserID.String()))
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

// UsageSeries returns daily aggregates for the user over the past days.
func (r *pgGenerationLogRepository) UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]models.UsageDay, error) {
	query := `SELECT date_trunc('day', created_at) AS day,
			COUNT(*) AS operations,
			COALESCE(SUM(total_tokens), 0) AS total_tokens,
			COALESCE(SUM(cost_usd), 0) AS cost_usd,
			COALESCE(SUM(credits_charged), 0) AS credits
		FROM generation_logs
		WHERE user_id = $1 AND created_at >= now() - ($2 || ' days')::interval
		GROUP BY 1
		ORDER BY 1 ASC`
	var series []models.UsageDay
	if err := pgxscan.Select(ctx, r.db, &series, query, userID, days); err != nil {
		r.logger.Error("Failed to load usage series", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to load usage series: %w", err)
	}
	return series, nil
}

// Totals returns lifetime token and cost sums for the user.
func (r *pgGenerationLogRepository) Totals(ctx context.Context, userID uuid.UUID) (int, float64, error) {
	query := `SELECT COALESCE(SUM(total_tokens), 0), COALESCE(SUM(cost_usd), 0)
		FROM generation_logs WHERE user_id = $1`
	var totalTokens int
	var totalCost float64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&totalTokens, &totalCost); err != nil {
		r.logger.Error("Failed to load usage totals", zap.Error(err), zap.String("userID", userID.String()))
		return 0, 0, fmt.Errorf("failed to load usage totals: %w", err)
	}
	return totalTokens, totalCost, nil
}

// EarningsByStory returns the per-story breakdown for the creator view.
func (r *pgGenerationLogRepository) EarningsByStory(ctx context.Context, userID uuid.UUID) ([]models.StoryEarnings, error) {
	query := `SELECT s.id AS story_id, s.title, s.status,
			COUNT(gl.id) AS operations,
			COALESCE(SUM(gl.total_tokens), 0) AS total_tokens,
			COALESCE(SUM(gl.cost_usd), 0) AS cost_usd
		FROM stories s
		LEFT JOIN generation_logs gl ON gl.story_id = s.id
		WHERE s.user_id = $1
		GROUP BY s.id, s.title, s.status
		ORDER BY total_tokens DESC`
	var earnings []models.StoryEarnings
	if err := pgxscan.Select(ctx, r.db, &earnings, query, userID); err != nil {
		r.logger.Error("Failed to load story earnings", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to load story earnings: %w", err)
	}
	return earnings, nil
}
