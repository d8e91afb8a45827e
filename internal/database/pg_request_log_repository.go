package database

import (
	"context"
	"fmt"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"go.uber.org/zap"
)

// Compile-time check to ensure pgRequestLogRepository implements RequestLogRepository
var _ interfaces.RequestLogRepository = (*pgRequestLogRepository)(nil)

type pgRequestLogRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgRequestLogRepository creates a new PostgreSQL-backed RequestLogRepository.
func NewPgRequestLogRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.RequestLogRepository {
	return &pgRequestLogRepository{
		db:     db,
		logger: logger.Named("PgRequestLogRepo"),
	}
}

// Create appends one request audit row.
func (r *pgRequestLogRepository) Create(ctx context.Context, entry *models.RequestLog) error {
	query := `INSERT INTO request_logs (method, path, status, latency_ms, user_id, ip)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, query,
		entry.Method, entry.Path, entry.Status, entry.LatencyMS, entry.UserID, entry.IP,
	)
	if err != nil {
		r.logger.Error("Failed to insert request log", zap.Error(err), zap.String("path", entry.Path))
		return fmt.Errorf("failed to insert request log: %w", err)
	}
	return nil
}
