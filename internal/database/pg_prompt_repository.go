package database

import (
	"context"
	"errors"
	"fmt"

	"infinite-pages/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrPromptNotFound is returned when no template exists for a key/language.
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrPromptAlreadyExists is returned on a duplicate key/language insert.
	ErrPromptAlreadyExists = errors.New("prompt with this key and language already exists")
)

const promptFields = `id, key, language, content, created_at, updated_at`

// PgPromptRepository stores system prompt templates in Postgres. Operators
// edit templates out of band; the service only reads them at request time
// and falls back to built-in defaults.
type PgPromptRepository struct {
	db *pgxpool.Pool
}

// NewPgPromptRepository creates a new prompt repository.
func NewPgPromptRepository(db *pgxpool.Pool) *PgPromptRepository {
	if db == nil {
		log.Fatal().Msg("Database pool is nil for PgPromptRepository")
	}
	return &PgPromptRepository{db: db}
}

// Create inserts a new prompt template.
func (r *PgPromptRepository) Create(ctx context.Context, prompt *models.Prompt) error {
	query := `INSERT INTO prompts (key, language, content) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, prompt.Key, prompt.Language, prompt.Content).Scan(
		&prompt.ID, &prompt.CreatedAt, &prompt.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrPromptAlreadyExists
		}
		log.Error().Err(err).Str("key", prompt.Key).Str("language", prompt.Language).Msg("Failed to create prompt")
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	log.Info().Str("key", prompt.Key).Str("language", prompt.Language).Int64("id", prompt.ID).Msg("Prompt created")
	return nil
}

// GetByKeyAndLanguage returns the template for a key and language.
func (r *PgPromptRepository) GetByKeyAndLanguage(ctx context.Context, key, language string) (*models.Prompt, error) {
	query := fmt.Sprintf(`SELECT %s FROM prompts WHERE key = $1 AND language = $2`, promptFields)
	var prompt models.Prompt
	err := r.db.QueryRow(ctx, query, key, language).Scan(
		&prompt.ID, &prompt.Key, &prompt.Language, &prompt.Content, &prompt.CreatedAt, &prompt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPromptNotFound
		}
		log.Error().Err(err).Str("key", key).Str("language", language).Msg("Failed to get prompt by key and language")
		return nil, fmt.Errorf("failed to get prompt by key and language: %w", err)
	}
	return &prompt, nil
}

// Update replaces the content of an existing template.
func (r *PgPromptRepository) Update(ctx context.Context, prompt *models.Prompt) error {
	query := `UPDATE prompts SET content = $1, updated_at = NOW() WHERE key = $2 AND language = $3 RETURNING updated_at`
	err := r.db.QueryRow(ctx, query, prompt.Content, prompt.Key, prompt.Language).Scan(&prompt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPromptNotFound
		}
		log.Error().Err(err).Str("key", prompt.Key).Str("language", prompt.Language).Msg("Failed to update prompt")
		return fmt.Errorf("failed to update prompt: %w", err)
	}
	log.Info().Str("key", prompt.Key).Str("language", prompt.Language).Int64("id", prompt.ID).Msg("Prompt updated")
	return nil
}
