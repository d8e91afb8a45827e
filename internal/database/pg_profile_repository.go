package database

import (
	"context"
	"errors"
	"fmt"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgProfileRepository implements ProfileRepository
var _ interfaces.ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProfileRepository creates a new PostgreSQL-backed ProfileRepository.
func NewPgProfileRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProfileRepository {
	return &pgProfileRepository{
		db:     db,
		logger: logger.Named("PgProfileRepo"),
	}
}

const profileFields = `id, email, subscription_tier, is_creator, tokens_remaining, tokens_used_total, stories_created, words_generated, created_at, updated_at`

// GetByID retrieves a profile by its auth identity.
func (r *pgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileFields + ` FROM profiles WHERE id = $1`
	p := &models.Profile{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.SubscriptionTier, &p.IsCreator,
		&p.TokensRemaining, &p.TokensUsedTotal, &p.StoriesCreated, &p.WordsGenerated,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Profile not found", zap.String("profileID", id.String()))
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile", zap.Error(err), zap.String("profileID", id.String()))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// EnsureExists inserts a default free-tier profile for a new auth identity.
func (r *pgProfileRepository) EnsureExists(ctx context.Context, id uuid.UUID, email string) error {
	query := `INSERT INTO profiles (id, email) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.Exec(ctx, query, id, email); err != nil {
		r.logger.Error("Failed to ensure profile exists", zap.Error(err), zap.String("profileID", id.String()))
		return fmt.Errorf("failed to ensure profile exists: %w", err)
	}
	return nil
}

// DeductTokens atomically charges the balance. The WHERE clause makes the
// check-and-deduct a single statement, so concurrent requests cannot both
// pass the balance check and drive the balance negative.
func (r *pgProfileRepository) DeductTokens(ctx context.Context, id uuid.UUID, cost int) error {
	if cost < 0 {
		return fmt.Errorf("%w: negative deduction", models.ErrInvalidInput)
	}
	query := `UPDATE profiles
		SET tokens_remaining = tokens_remaining - $2,
		    tokens_used_total = tokens_used_total + $2,
		    updated_at = now()
		WHERE id = $1 AND tokens_remaining >= $2`
	tag, err := r.db.Exec(ctx, query, id, cost)
	if err != nil {
		r.logger.Error("Failed to deduct tokens", zap.Error(err), zap.String("profileID", id.String()), zap.Int("cost", cost))
		return fmt.Errorf("failed to deduct tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the profile is missing or the balance does not cover the
		// cost; distinguish for the caller.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		r.logger.Warn("Token deduction rejected: insufficient balance",
			zap.String("profileID", id.String()), zap.Int("cost", cost))
		return models.ErrInsufficientTokens
	}
	r.logger.Debug("Tokens deducted", zap.String("profileID", id.String()), zap.Int("cost", cost))
	return nil
}

// RecordUsage increments the cumulative usage counters.
func (r *pgProfileRepository) RecordUsage(ctx context.Context, id uuid.UUID, wordsGenerated, storiesCreated int) error {
	query := `UPDATE profiles
		SET words_generated = words_generated + $2,
		    stories_created = stories_created + $3,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, wordsGenerated, storiesCreated)
	if err != nil {
		r.logger.Error("Failed to record usage", zap.Error(err), zap.String("profileID", id.String()))
		return fmt.Errorf("failed to record usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}
