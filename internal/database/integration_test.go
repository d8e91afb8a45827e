package database_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"infinite-pages/internal/database"
	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/docker/docker/client"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RepositoryIntegrationSuite runs the repository and cache layers against
// real PostgreSQL and Redis containers.
type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	profiles interfaces.ProfileRepository
	stories  interfaces.StoryRepository
	chapters interfaces.ChapterRepository
	genLogs  interfaces.GenerationLogRepository
	facts    interfaces.StoryFactRepository
	reports  interfaces.ErrorReportRepository
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	require.NoError(s.T(), s.runMigrations(pgConnStr), "Failed to run migrations")

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	_, err = s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to test redis")

	s.profiles = database.NewPgProfileRepository(s.pool, s.logger)
	s.stories = database.NewPgStoryRepository(s.pool, s.logger)
	s.chapters = database.NewPgChapterRepository(s.pool, s.logger)
	s.genLogs = database.NewPgGenerationLogRepository(s.pool, s.logger)
	s.facts = database.NewPgStoryFactRepository(s.pool, s.logger)
	s.reports = database.NewPgErrorReportRepository(s.pool, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err(), "Failed to flush Redis DB")
	_, err := s.pool.Exec(s.ctx,
		"TRUNCATE TABLE profiles, stories, chapters, generation_logs, story_facts, error_reports, request_logs RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate tables")
}

func (s *RepositoryIntegrationSuite) runMigrations(dbURL string) error {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return fmt.Errorf("could not get caller information")
	}
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "migrations")

	sourceDriver, err := iofs.New(os.DirFS(migrationsPath), ".")
	if err != nil {
		return fmt.Errorf("failed to create iofs source driver: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Fatalf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) newProfile() uuid.UUID {
	t := s.T()
	id := uuid.New()
	require.NoError(t, s.profiles.EnsureExists(s.ctx, id, fmt.Sprintf("%s@example.com", id)))
	return id
}

func (s *RepositoryIntegrationSuite) newStory(userID uuid.UUID, title string) *models.Story {
	t := s.T()
	story := &models.Story{
		UserID:  userID,
		Title:   title,
		Genre:   "mystery",
		Premise: "A cartographer maps a city that keeps changing overnight.",
		Mode:    models.ModeStory,
		Status:  models.StatusDraft,
	}
	require.NoError(t, s.stories.Create(s.ctx, story))
	return story
}

func (s *RepositoryIntegrationSuite) TestProfileLifecycle() {
	t := s.T()
	userID := s.newProfile()

	// Lazy provisioning is idempotent.
	require.NoError(t, s.profiles.EnsureExists(s.ctx, userID, "changed@example.com"))

	profile, err := s.profiles.GetByID(s.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, models.TierFree, profile.SubscriptionTier)
	require.Equal(t, 100, profile.TokensRemaining)
	require.False(t, profile.IsCreator)

	require.NoError(t, s.profiles.DeductTokens(s.ctx, userID, 30))
	profile, err = s.profiles.GetByID(s.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 70, profile.TokensRemaining)
	require.Equal(t, 30, profile.TokensUsedTotal)

	// The conditional update never drives the balance negative.
	err = s.profiles.DeductTokens(s.ctx, userID, 1000)
	require.ErrorIs(t, err, models.ErrInsufficientTokens)
	profile, err = s.profiles.GetByID(s.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 70, profile.TokensRemaining)

	err = s.profiles.DeductTokens(s.ctx, uuid.New(), 1)
	require.ErrorIs(t, err, models.ErrProfileNotFound)

	require.NoError(t, s.profiles.RecordUsage(s.ctx, userID, 500, 1))
	profile, err = s.profiles.GetByID(s.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 500, profile.WordsGenerated)
	require.Equal(t, 1, profile.StoriesCreated)
}

func (s *RepositoryIntegrationSuite) TestStoryFoundationRoundTrip() {
	t := s.T()
	userID := s.newProfile()
	story := s.newStory(userID, "The Drowned City")

	foundation := &models.Foundation{
		Type:     models.ModeStory,
		Title:    "The Drowned City",
		Synopsis: "A cartographer maps a city that keeps changing overnight.",
		Characters: []models.FoundationCharacter{
			{Name: "Mira", Role: "protagonist", Description: "a cartographer"},
		},
		Setting: models.FoundationSetting{Time: "1920s", Place: "the drowned city"},
		Themes:  []string{"memory"},
	}
	require.NoError(t, s.stories.SetFoundation(s.ctx, story.ID, foundation, 1000, 0.03))

	got, err := s.stories.GetByID(s.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)
	require.Equal(t, 1000, got.TotalTokensUsed)
	require.InDelta(t, 0.03, got.TotalCostUSD, 1e-9)
	require.NotNil(t, got.Foundation)
	require.Equal(t, foundation.Synopsis, got.Foundation.Synopsis)
	require.Len(t, got.Foundation.Characters, 1)
	require.Equal(t, "Mira", got.Foundation.Characters[0].Name)

	universe := &models.UniverseSetup{WorldName: "The Drowned City", Rules: []string{"water remembers"}}
	require.NoError(t, s.stories.UpdateUniverse(s.ctx, story.ID, universe))
	got, err = s.stories.GetByID(s.ctx, story.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Foundation.Universe)
	require.Equal(t, "The Drowned City", got.Foundation.Universe.WorldName)
}

func (s *RepositoryIntegrationSuite) TestStoryKeysetPagination() {
	t := s.T()
	userID := s.newProfile()
	for i := 0; i < 5; i++ {
		s.newStory(userID, fmt.Sprintf("Story %d", i))
		// Distinct creation timestamps keep the ordering assertions simple.
		time.Sleep(5 * time.Millisecond)
	}

	first, err := s.stories.ListByUser(s.ctx, userID, time.Time{}, uuid.Nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.True(t, first[0].CreatedAt.After(first[1].CreatedAt))

	last := first[1]
	second, err := s.stories.ListByUser(s.ctx, userID, last.CreatedAt, last.ID, 10)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for _, story := range second {
		require.True(t, story.CreatedAt.Before(last.CreatedAt))
	}
}

func (s *RepositoryIntegrationSuite) TestStoryDeleteCascades() {
	t := s.T()
	userID := s.newProfile()
	story := s.newStory(userID, "Doomed Draft")
	require.NoError(t, s.chapters.Create(s.ctx, &models.Chapter{
		StoryID: story.ID, ChapterNumber: 1, Title: "One", Content: "text",
	}))

	require.NoError(t, s.stories.Delete(s.ctx, story.ID))

	_, err := s.stories.GetByID(s.ctx, story.ID)
	require.ErrorIs(t, err, models.ErrStoryNotFound)
	count, err := s.chapters.CountByStory(s.ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func (s *RepositoryIntegrationSuite) TestChapterUniqueConflict() {
	t := s.T()
	userID := s.newProfile()
	story := s.newStory(userID, "The Drowned City")

	first := &models.Chapter{StoryID: story.ID, ChapterNumber: 1, Title: "One", Content: "first text"}
	require.NoError(t, s.chapters.Create(s.ctx, first))

	dup := &models.Chapter{StoryID: story.ID, ChapterNumber: 1, Title: "Duplicate", Content: "other text"}
	require.ErrorIs(t, s.chapters.Create(s.ctx, dup), models.ErrChapterConflict)

	got, err := s.chapters.GetByNumber(s.ctx, story.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "One", got.Title)

	_, err = s.chapters.GetByNumber(s.ctx, story.ID, 2)
	require.ErrorIs(t, err, models.ErrChapterNotFound)
}

func (s *RepositoryIntegrationSuite) TestGenerationLogAggregates() {
	t := s.T()
	userID := s.newProfile()
	story := s.newStory(userID, "The Drowned City")

	entries := []models.GenerationLog{
		{UserID: userID, StoryID: &story.ID, Operation: models.OperationFoundation, Model: "m", TotalTokens: 1000, CostUSD: 0.03, CreditsCharged: 2, Status: models.GenStatusSuccess},
		{UserID: userID, StoryID: &story.ID, Operation: models.OperationChapter, Model: "m", TotalTokens: 500, CostUSD: 0.015, CreditsCharged: 1, Status: models.GenStatusDeductFailed},
		{UserID: userID, Operation: models.OperationFoundation, Model: "m", Status: models.GenStatusFailed},
	}
	for i := range entries {
		require.NoError(t, s.genLogs.Create(s.ctx, &entries[i]))
	}

	totalTokens, totalCost, err := s.genLogs.Totals(s.ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 1500, totalTokens)
	require.InDelta(t, 0.045, totalCost, 1e-9)

	series, err := s.genLogs.UsageSeries(s.ctx, userID, 30)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, 3, series[0].Operations)
	require.Equal(t, 1500, series[0].TotalTokens)
	require.Equal(t, 3, series[0].Credits)

	earnings, err := s.genLogs.EarningsByStory(s.ctx, userID)
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	require.Equal(t, story.ID, earnings[0].StoryID)
	require.Equal(t, 1500, earnings[0].TotalTokens)
}

func (s *RepositoryIntegrationSuite) TestStoryFactUpsert() {
	t := s.T()
	userID := s.newProfile()
	story := s.newStory(userID, "The Drowned City")

	fact := &models.StoryFact{StoryID: story.ID, FactType: models.FactTypeCharacter, FactKey: "Mira", FactValue: "protagonist"}
	require.NoError(t, s.facts.Upsert(s.ctx, fact))

	fact.FactValue = "protagonist: a cartographer"
	require.NoError(t, s.facts.Upsert(s.ctx, fact))

	facts, err := s.facts.ListByStory(s.ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "protagonist: a cartographer", facts[0].FactValue)
}

func (s *RepositoryIntegrationSuite) TestErrorReportFiltersAndResolve() {
	t := s.T()
	userID := s.newProfile()

	for _, severity := range []string{models.ReportSeverityError, models.ReportSeverityCritical, models.ReportSeverityError} {
		require.NoError(t, s.reports.Create(s.ctx, &models.ErrorReport{
			UserID: &userID, Source: "web", Message: "boom", Severity: severity,
		}))
	}

	all, err := s.reports.List(s.ctx, "", nil, time.Time{}, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	critical, err := s.reports.List(s.ctx, models.ReportSeverityCritical, nil, time.Time{}, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, critical, 1)

	require.NoError(t, s.reports.SetResolved(s.ctx, critical[0].ID, true))

	unresolved := false
	open, err := s.reports.List(s.ctx, "", &unresolved, time.Time{}, uuid.Nil, 10)
	require.NoError(t, err)
	require.Len(t, open, 2)
}

func (s *RepositoryIntegrationSuite) TestRedisResponseCache() {
	t := s.T()
	cache := database.NewRedisResponseCache(s.redisClient, s.logger)

	_, _, ok, err := cache.Get(s.ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	usage := models.UsageInfo{PromptTokens: 200, CompletionTokens: 800, TotalTokens: 1000, EstimatedCostUSD: 0.012}
	require.NoError(t, cache.Set(s.ctx, "key", "generated text", usage, time.Minute))

	text, gotUsage, ok, err := cache.Get(s.ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "generated text", text)
	require.Equal(t, usage, gotUsage)
}

func (s *RepositoryIntegrationSuite) TestRedisFactCache() {
	t := s.T()
	cache := database.NewRedisFactCache(s.redisClient, s.logger)
	storyID := uuid.NewString()

	_, ok, err := cache.GetFacts(s.ctx, storyID)
	require.NoError(t, err)
	require.False(t, ok)

	block := "character|Mira=%P: a cartographer"
	require.NoError(t, cache.SetFacts(s.ctx, storyID, block, time.Minute))

	got, ok, err := cache.GetFacts(s.ctx, storyID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, block, got)
}
