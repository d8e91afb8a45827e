package database

import (
	"context"
	"fmt"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgErrorReportRepository implements ErrorReportRepository
var _ interfaces.ErrorReportRepository = (*pgErrorReportRepository)(nil)

type pgErrorReportRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgErrorReportRepository creates a new PostgreSQL-backed ErrorReportRepository.
func NewPgErrorReportRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ErrorReportRepository {
	return &pgErrorReportRepository{
		db:     db,
		logger: logger.Named("PgErrorReportRepo"),
	}
}

// Create inserts one error report.
func (r *pgErrorReportRepository) Create(ctx context.Context, report *models.ErrorReport) error {
	query := `INSERT INTO error_reports (user_id, source, message, stack, severity, url, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, resolved, created_at`
	err := r.db.QueryRow(ctx, query,
		report.UserID, report.Source, report.Message, report.Stack,
		report.Severity, report.URL, report.UserAgent,
	).Scan(&report.ID, &report.Resolved, &report.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert error report", zap.Error(err), zap.String("source", report.Source))
		return fmt.Errorf("failed to insert error report: %w", err)
	}
	return nil
}

// List returns reports newest first with optional severity/resolved filters
// and cursor pagination.
func (r *pgErrorReportRepository) List(ctx context.Context, severity string, resolved *bool, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.ErrorReport, error) {
	query := `SELECT id, user_id, source, message, stack, severity, url, user_agent, resolved, created_at
		FROM error_reports
		WHERE ($1 = '' OR severity = $1)
		  AND ($2::boolean IS NULL OR resolved = $2)
		  AND ($3::timestamptz IS NULL OR (created_at, id) < ($3, $4))
		ORDER BY created_at DESC, id DESC
		LIMIT $5`

	var cursorArg any
	if !cursorTime.IsZero() {
		cursorArg = cursorTime
	}

	var reports []models.ErrorReport
	if err := pgxscan.Select(ctx, r.db, &reports, query, severity, resolved, cursorArg, cursorID, limit); err != nil {
		r.logger.Error("Failed to list error reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list error reports: %w", err)
	}
	return reports, nil
}

// SetResolved toggles the resolved flag.
func (r *pgErrorReportRepository) SetResolved(ctx context.Context, id uuid.UUID, resolved bool) error {
	query := `UPDATE error_reports SET resolved = $2 WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id, resolved)
	if err != nil {
		r.logger.Error("Failed to update error report", zap.Error(err), zap.String("reportID", id.String()))
		return fmt.Errorf("failed to update error report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrReportNotFound
	}
	return nil
}
