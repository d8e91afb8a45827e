package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infinite-pages/internal/mocks"
	"infinite-pages/internal/models"
)

func newTestAdminService() (*AdminService, *mocks.MockProfileRepository, *mocks.MockErrorReportRepository) {
	profiles := new(mocks.MockProfileRepository)
	reports := new(mocks.MockErrorReportRepository)
	svc := NewAdminService(profiles, reports, zap.NewNop())
	return svc, profiles, reports
}

func adminProfile(id uuid.UUID) *models.Profile {
	return &models.Profile{ID: id, Email: "ops@example.com", SubscriptionTier: models.TierAdmin}
}

func TestReportError_Defaults(t *testing.T) {
	svc, _, reports := newTestAdminService()
	userID := uuid.New()
	reports.On("Create", mock.Anything, mock.AnythingOfType("*models.ErrorReport")).Return(nil)

	report, err := svc.ReportError(context.Background(), &userID, models.ErrorReportRequest{
		Source:  "web",
		Message: "TypeError: cannot read properties of undefined",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ReportSeverityError, report.Severity)
	assert.Equal(t, &userID, report.UserID)
}

func TestReportError_AnonymousAllowed(t *testing.T) {
	svc, _, reports := newTestAdminService()
	reports.On("Create", mock.Anything, mock.Anything).Return(nil)

	report, err := svc.ReportError(context.Background(), nil, models.ErrorReportRequest{
		Source:   "web",
		Message:  "boot failed before login",
		Severity: models.ReportSeverityWarning,
	})

	require.NoError(t, err)
	assert.Nil(t, report.UserID)
	assert.Equal(t, models.ReportSeverityWarning, report.Severity)
}

func TestReportError_Validation(t *testing.T) {
	svc, _, reports := newTestAdminService()

	_, err := svc.ReportError(context.Background(), nil, models.ErrorReportRequest{Message: "   "})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.ReportError(context.Background(), nil, models.ErrorReportRequest{Message: "x", Severity: "fatal"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	reports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportError_TruncatesOversizedFields(t *testing.T) {
	svc, _, reports := newTestAdminService()
	reports.On("Create", mock.Anything, mock.Anything).Return(nil)

	report, err := svc.ReportError(context.Background(), nil, models.ErrorReportRequest{
		Source:  "web",
		Message: strings.Repeat("a", reportMessageMaxLength+100),
		Stack:   strings.Repeat("b", reportStackMaxLength+100),
	})

	require.NoError(t, err)
	assert.Len(t, report.Message, reportMessageMaxLength)
	assert.Len(t, report.Stack, reportStackMaxLength)
}

func TestListReports_RequiresAdmin(t *testing.T) {
	svc, profiles, reports := newTestAdminService()
	userID := uuid.New()
	profiles.On("GetByID", mock.Anything, userID).Return(&models.Profile{ID: userID, SubscriptionTier: models.TierPremium}, nil)

	_, err := svc.ListReports(context.Background(), userID, "", nil, "", 10)

	assert.ErrorIs(t, err, models.ErrAdminRequired)
	reports.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestListReports_UnknownSeverity(t *testing.T) {
	svc, profiles, _ := newTestAdminService()
	adminID := uuid.New()
	profiles.On("GetByID", mock.Anything, adminID).Return(adminProfile(adminID), nil)

	_, err := svc.ListReports(context.Background(), adminID, "fatal", nil, "", 10)

	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListReports_Pagination(t *testing.T) {
	svc, profiles, reports := newTestAdminService()
	adminID := uuid.New()
	profiles.On("GetByID", mock.Anything, adminID).Return(adminProfile(adminID), nil)

	now := time.Now().UTC()
	page := []models.ErrorReport{
		{ID: uuid.New(), Severity: models.ReportSeverityError, CreatedAt: now},
		{ID: uuid.New(), Severity: models.ReportSeverityError, CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), Severity: models.ReportSeverityError, CreatedAt: now.Add(-2 * time.Hour)},
	}
	reports.On("List", mock.Anything, models.ReportSeverityError, (*bool)(nil), time.Time{}, uuid.Nil, 3).Return(page, nil)

	resp, err := svc.ListReports(context.Background(), adminID, models.ReportSeverityError, nil, "", 2)

	require.NoError(t, err)
	assert.Len(t, resp.Reports, 2)
	assert.NotEmpty(t, resp.NextCursor)
}

func TestResolveReport(t *testing.T) {
	svc, profiles, reports := newTestAdminService()
	adminID := uuid.New()
	reportID := uuid.New()
	profiles.On("GetByID", mock.Anything, adminID).Return(adminProfile(adminID), nil)
	reports.On("SetResolved", mock.Anything, reportID, true).Return(nil)

	require.NoError(t, svc.ResolveReport(context.Background(), adminID, reportID, true))
	reports.AssertExpectations(t)
}

func TestResolveReport_NonAdmin(t *testing.T) {
	svc, profiles, reports := newTestAdminService()
	userID := uuid.New()
	profiles.On("GetByID", mock.Anything, userID).Return(&models.Profile{ID: userID, SubscriptionTier: models.TierFree}, nil)

	err := svc.ResolveReport(context.Background(), userID, uuid.New(), true)

	assert.ErrorIs(t, err, models.ErrAdminRequired)
	reports.AssertNotCalled(t, "SetResolved", mock.Anything, mock.Anything, mock.Anything)
}
