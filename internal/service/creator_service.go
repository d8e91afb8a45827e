package service

import (
	"context"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// creatorRevenueShare is the fraction of generation spend credited back to
// the creator in the estimated payout.
const creatorRevenueShare = 0.25

// usageSeriesDays is the window of the daily usage series.
const usageSeriesDays = 30

// CreatorService serves the creator earnings and per-user usage analytics
// views. Access tiers: earnings needs the creator flag, the enhanced view
// additionally needs premium (admins pass both gates).
type CreatorService struct {
	profiles interfaces.ProfileRepository
	stories  interfaces.StoryRepository
	genLogs  interfaces.GenerationLogRepository
	logger   *zap.Logger
}

// NewCreatorService creates a CreatorService.
func NewCreatorService(
	profiles interfaces.ProfileRepository,
	stories interfaces.StoryRepository,
	genLogs interfaces.GenerationLogRepository,
	logger *zap.Logger,
) *CreatorService {
	return &CreatorService{
		profiles: profiles,
		stories:  stories,
		genLogs:  genLogs,
		logger:   logger.Named("CreatorService"),
	}
}

func (s *CreatorService) creatorProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsCreator && !profile.IsAdmin() {
		return nil, models.ErrCreatorRequired
	}
	return profile, nil
}

// Earnings returns the standard creator earnings summary.
func (s *CreatorService) Earnings(ctx context.Context, userID uuid.UUID) (*models.EarningsResponse, error) {
	if _, err := s.creatorProfile(ctx, userID); err != nil {
		return nil, err
	}
	return s.earningsSummary(ctx, userID)
}

// EnhancedEarnings returns the premium earnings view with the per-story
// breakdown and the daily series. Free and basic tiers are rejected.
func (s *CreatorService) EnhancedEarnings(ctx context.Context, userID uuid.UUID) (*models.EnhancedEarningsResponse, error) {
	profile, err := s.creatorProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.HasPremiumAccess() {
		return nil, models.ErrPremiumRequired
	}

	summary, err := s.earningsSummary(ctx, userID)
	if err != nil {
		return nil, err
	}
	stories, err := s.genLogs.EarningsByStory(ctx, userID)
	if err != nil {
		return nil, err
	}
	daily, err := s.genLogs.UsageSeries(ctx, userID, usageSeriesDays)
	if err != nil {
		return nil, err
	}
	return &models.EnhancedEarningsResponse{
		EarningsResponse: *summary,
		Stories:          stories,
		Daily:            daily,
	}, nil
}

func (s *CreatorService) earningsSummary(ctx context.Context, userID uuid.UUID) (*models.EarningsResponse, error) {
	totalTokens, totalCost, err := s.genLogs.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	published, err := s.stories.CountByUserAndStatus(ctx, userID, models.StatusPublished)
	if err != nil {
		return nil, err
	}
	return &models.EarningsResponse{
		TotalTokens:      totalTokens,
		TotalCostUSD:     totalCost,
		PublishedStories: published,
		EstimatedPayout:  totalCost * creatorRevenueShare,
	}, nil
}

// Usage returns the per-user analytics summary: the ledger counters plus the
// last-30-days daily series.
func (s *CreatorService) Usage(ctx context.Context, userID uuid.UUID) (*models.UsageResponse, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	daily, err := s.genLogs.UsageSeries(ctx, userID, usageSeriesDays)
	if err != nil {
		return nil, err
	}
	return &models.UsageResponse{
		TokensRemaining: profile.TokensRemaining,
		TokensUsedTotal: profile.TokensUsedTotal,
		StoriesCreated:  profile.StoriesCreated,
		WordsGenerated:  profile.WordsGenerated,
		Daily:           daily,
	}, nil
}
