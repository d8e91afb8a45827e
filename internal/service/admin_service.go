package service

import (
	"context"
	"fmt"
	"strings"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"
	"infinite-pages/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	reportMessageMaxLength = 4000
	reportStackMaxLength   = 20000
)

var knownSeverities = map[string]bool{
	models.ReportSeverityInfo:     true,
	models.ReportSeverityWarning:  true,
	models.ReportSeverityError:    true,
	models.ReportSeverityCritical: true,
}

// AdminService handles error report ingest and the admin monitoring views.
// Ingest is open to any authenticated user; listing and resolving require
// the admin tier.
type AdminService struct {
	profiles interfaces.ProfileRepository
	reports  interfaces.ErrorReportRepository
	logger   *zap.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(profiles interfaces.ProfileRepository, reports interfaces.ErrorReportRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		profiles: profiles,
		reports:  reports,
		logger:   logger.Named("AdminService"),
	}
}

// ReportError ingests a client error report. userID may be nil for reports
// captured before authentication.
func (s *AdminService) ReportError(ctx context.Context, userID *uuid.UUID, req models.ErrorReportRequest) (*models.ErrorReport, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrInvalidInput)
	}
	severity := req.Severity
	if severity == "" {
		severity = models.ReportSeverityError
	}
	if !knownSeverities[severity] {
		return nil, fmt.Errorf("%w: unknown severity %q", models.ErrInvalidInput, req.Severity)
	}

	report := &models.ErrorReport{
		UserID:    userID,
		Source:    req.Source,
		Message:   truncate(req.Message, reportMessageMaxLength),
		Stack:     truncate(req.Stack, reportStackMaxLength),
		Severity:  severity,
		URL:       req.URL,
		UserAgent: req.UserAgent,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	if severity == models.ReportSeverityCritical {
		s.logger.Error("Critical client error reported",
			zap.String("reportID", report.ID.String()),
			zap.String("source", report.Source),
			zap.String("message", report.Message),
		)
	}
	return report, nil
}

// ListReports returns a cursor page of error reports, newest first, with
// optional severity and resolved filters. Admin only.
func (s *AdminService) ListReports(ctx context.Context, adminID uuid.UUID, severity string, resolved *bool, cursor string, limit int) (*models.ErrorReportListResponse, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if severity != "" && !knownSeverities[severity] {
		return nil, fmt.Errorf("%w: unknown severity %q", models.ErrInvalidInput, severity)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	reports, err := s.reports.List(ctx, severity, resolved, cursorTime, cursorID, limit+1)
	if err != nil {
		return nil, err
	}
	resp := &models.ErrorReportListResponse{Reports: reports}
	if len(reports) > limit {
		resp.Reports = reports[:limit]
		last := resp.Reports[limit-1]
		resp.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return resp, nil
}

// ResolveReport marks a report resolved or unresolved. Admin only.
func (s *AdminService) ResolveReport(ctx context.Context, adminID, reportID uuid.UUID, resolved bool) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	return s.reports.SetResolved(ctx, reportID, resolved)
}

func (s *AdminService) requireAdmin(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.IsAdmin() {
		return models.ErrAdminRequired
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
