// Package mocks contains hand-written testify mocks for the repository and
// pipeline interfaces used in unit tests.
package mocks

import (
	"context"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock type for the ProfileRepository type
type MockProfileRepository struct {
	mock.Mock
}

var _ interfaces.ProfileRepository = (*MockProfileRepository)(nil)

func (_m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Profile
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockProfileRepository) EnsureExists(ctx context.Context, id uuid.UUID, email string) error {
	return _m.Called(ctx, id, email).Error(0)
}

func (_m *MockProfileRepository) DeductTokens(ctx context.Context, id uuid.UUID, cost int) error {
	return _m.Called(ctx, id, cost).Error(0)
}

func (_m *MockProfileRepository) RecordUsage(ctx context.Context, id uuid.UUID, wordsGenerated, storiesCreated int) error {
	return _m.Called(ctx, id, wordsGenerated, storiesCreated).Error(0)
}

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

var _ interfaces.StoryRepository = (*MockStoryRepository)(nil)

func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	return _m.Called(ctx, story).Error(0)
}

func (_m *MockStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	ret := _m.Called(ctx, id)
	var r0 *models.Story
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) ListByUser(ctx context.Context, userID uuid.UUID, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.Story, error) {
	ret := _m.Called(ctx, userID, cursorTime, cursorID, limit)
	var r0 []models.Story
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return _m.Called(ctx, id, status).Error(0)
}

func (_m *MockStoryRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	return _m.Called(ctx, id, title).Error(0)
}

func (_m *MockStoryRepository) SetFoundation(ctx context.Context, id uuid.UUID, foundation *models.Foundation, tokensUsed int, costUSD float64) error {
	return _m.Called(ctx, id, foundation, tokensUsed, costUSD).Error(0)
}

func (_m *MockStoryRepository) UpdateUniverse(ctx context.Context, id uuid.UUID, universe *models.UniverseSetup) error {
	return _m.Called(ctx, id, universe).Error(0)
}

func (_m *MockStoryRepository) AddChapterStats(ctx context.Context, id uuid.UUID, wordCount, tokensUsed int, costUSD float64) error {
	return _m.Called(ctx, id, wordCount, tokensUsed, costUSD).Error(0)
}

func (_m *MockStoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return _m.Called(ctx, id).Error(0)
}

func (_m *MockStoryRepository) CountByUserAndStatus(ctx context.Context, userID uuid.UUID, status string) (int, error) {
	ret := _m.Called(ctx, userID, status)
	return ret.Int(0), ret.Error(1)
}

// MockChapterRepository is a mock type for the ChapterRepository type
type MockChapterRepository struct {
	mock.Mock
}

var _ interfaces.ChapterRepository = (*MockChapterRepository)(nil)

func (_m *MockChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	return _m.Called(ctx, chapter).Error(0)
}

func (_m *MockChapterRepository) GetByNumber(ctx context.Context, storyID uuid.UUID, number int) (*models.Chapter, error) {
	ret := _m.Called(ctx, storyID, number)
	var r0 *models.Chapter
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Chapter)
	}
	return r0, ret.Error(1)
}

func (_m *MockChapterRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.Chapter, error) {
	ret := _m.Called(ctx, storyID)
	var r0 []models.Chapter
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Chapter)
	}
	return r0, ret.Error(1)
}

func (_m *MockChapterRepository) CountByStory(ctx context.Context, storyID uuid.UUID) (int, error) {
	ret := _m.Called(ctx, storyID)
	return ret.Int(0), ret.Error(1)
}

// MockGenerationLogRepository is a mock type for the GenerationLogRepository type
type MockGenerationLogRepository struct {
	mock.Mock
}

var _ interfaces.GenerationLogRepository = (*MockGenerationLogRepository)(nil)

func (_m *MockGenerationLogRepository) Create(ctx context.Context, entry *models.GenerationLog) error {
	return _m.Called(ctx, entry).Error(0)
}

func (_m *MockGenerationLogRepository) UsageSeries(ctx context.Context, userID uuid.UUID, days int) ([]models.UsageDay, error) {
	ret := _m.Called(ctx, userID, days)
	var r0 []models.UsageDay
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.UsageDay)
	}
	return r0, ret.Error(1)
}

func (_m *MockGenerationLogRepository) Totals(ctx context.Context, userID uuid.UUID) (int, float64, error) {
	ret := _m.Called(ctx, userID)
	return ret.Int(0), ret.Get(1).(float64), ret.Error(2)
}

func (_m *MockGenerationLogRepository) EarningsByStory(ctx context.Context, userID uuid.UUID) ([]models.StoryEarnings, error) {
	ret := _m.Called(ctx, userID)
	var r0 []models.StoryEarnings
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.StoryEarnings)
	}
	return r0, ret.Error(1)
}

// MockStoryFactRepository is a mock type for the StoryFactRepository type
type MockStoryFactRepository struct {
	mock.Mock
}

var _ interfaces.StoryFactRepository = (*MockStoryFactRepository)(nil)

func (_m *MockStoryFactRepository) Upsert(ctx context.Context, fact *models.StoryFact) error {
	return _m.Called(ctx, fact).Error(0)
}

func (_m *MockStoryFactRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.StoryFact, error) {
	ret := _m.Called(ctx, storyID)
	var r0 []models.StoryFact
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.StoryFact)
	}
	return r0, ret.Error(1)
}

// MockErrorReportRepository is a mock type for the ErrorReportRepository type
type MockErrorReportRepository struct {
	mock.Mock
}

var _ interfaces.ErrorReportRepository = (*MockErrorReportRepository)(nil)

func (_m *MockErrorReportRepository) Create(ctx context.Context, report *models.ErrorReport) error {
	return _m.Called(ctx, report).Error(0)
}

func (_m *MockErrorReportRepository) List(ctx context.Context, severity string, resolved *bool, cursorTime time.Time, cursorID uuid.UUID, limit int) ([]models.ErrorReport, error) {
	ret := _m.Called(ctx, severity, resolved, cursorTime, cursorID, limit)
	var r0 []models.ErrorReport
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.ErrorReport)
	}
	return r0, ret.Error(1)
}

func (_m *MockErrorReportRepository) SetResolved(ctx context.Context, id uuid.UUID, resolved bool) error {
	return _m.Called(ctx, id, resolved).Error(0)
}

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

var _ interfaces.AIClient = (*MockAIClient)(nil)

func (_m *MockAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams) (string, models.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, userInput, params)
	return ret.String(0), ret.Get(1).(models.UsageInfo), ret.Error(2)
}

func (_m *MockAIClient) GenerateTextStream(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams, chunkHandler func(string) error) (models.UsageInfo, error) {
	ret := _m.Called(ctx, userID, systemPrompt, userInput, params, chunkHandler)
	return ret.Get(0).(models.UsageInfo), ret.Error(1)
}

// MockResponseCache is a mock type for the ResponseCache type
type MockResponseCache struct {
	mock.Mock
}

var _ interfaces.ResponseCache = (*MockResponseCache)(nil)

func (_m *MockResponseCache) Get(ctx context.Context, key string) (string, models.UsageInfo, bool, error) {
	ret := _m.Called(ctx, key)
	return ret.String(0), ret.Get(1).(models.UsageInfo), ret.Bool(2), ret.Error(3)
}

func (_m *MockResponseCache) Set(ctx context.Context, key string, text string, usage models.UsageInfo, ttl time.Duration) error {
	return _m.Called(ctx, key, text, usage, ttl).Error(0)
}

// MockFactCache is a mock type for the FactCache type
type MockFactCache struct {
	mock.Mock
}

var _ interfaces.FactCache = (*MockFactCache)(nil)

func (_m *MockFactCache) GetFacts(ctx context.Context, storyID string) (string, bool, error) {
	ret := _m.Called(ctx, storyID)
	return ret.String(0), ret.Bool(1), ret.Error(2)
}

func (_m *MockFactCache) SetFacts(ctx context.Context, storyID string, encoded string, ttl time.Duration) error {
	return _m.Called(ctx, storyID, encoded, ttl).Error(0)
}

// MockProgressPublisher is a mock type for the ProgressPublisher type
type MockProgressPublisher struct {
	mock.Mock
}

var _ interfaces.ProgressPublisher = (*MockProgressPublisher)(nil)

func (_m *MockProgressPublisher) Publish(ctx context.Context, event models.ProgressEvent) error {
	return _m.Called(ctx, event).Error(0)
}
