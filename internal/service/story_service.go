package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"infinite-pages/internal/config"
	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"
	"infinite-pages/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// Universe setup is a single short structured call.
	universeCreditEstimate = 5

	foundationSteps = 4
	chapterSteps    = 4
)

// ValidationError carries the per-field validation outcome so handlers can
// return it in the error details.
type ValidationError struct {
	Result models.ValidationResult
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Result.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return models.ErrInvalidInput }

// StoryService orchestrates the generation pipeline: validation, credit
// estimation, moderation, the AI call, schema validation, persistence and the
// atomic balance charge.
type StoryService struct {
	profiles  interfaces.ProfileRepository
	stories   interfaces.StoryRepository
	chapters  interfaces.ChapterRepository
	genLogs   interfaces.GenerationLogRepository
	facts     interfaces.StoryFactRepository
	prompts   *PromptProvider
	ai        interfaces.AIClient
	respCache interfaces.ResponseCache
	factCache interfaces.FactCache
	progress  interfaces.ProgressPublisher
	cfg       *config.Config
	logger    *zap.Logger
}

// NewStoryService wires the generation pipeline. respCache, factCache and
// progress may be nil; the pipeline then skips caching and progress events.
func NewStoryService(
	profiles interfaces.ProfileRepository,
	stories interfaces.StoryRepository,
	chapters interfaces.ChapterRepository,
	genLogs interfaces.GenerationLogRepository,
	facts interfaces.StoryFactRepository,
	prompts *PromptProvider,
	ai interfaces.AIClient,
	respCache interfaces.ResponseCache,
	factCache interfaces.FactCache,
	progress interfaces.ProgressPublisher,
	cfg *config.Config,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		profiles:  profiles,
		stories:   stories,
		chapters:  chapters,
		genLogs:   genLogs,
		facts:     facts,
		prompts:   prompts,
		ai:        ai,
		respCache: respCache,
		factCache: factCache,
		progress:  progress,
		cfg:       cfg,
		logger:    logger.Named("StoryService"),
	}
}

// CreateStory runs the full foundation pipeline and returns the completed
// story with billing information. The story row exists from the first step so
// that failures leave an inspectable error-status record.
func (s *StoryService) CreateStory(ctx context.Context, userID uuid.UUID, req models.CreateStoryRequest) (*models.StoryResponse, error) {
	result := ValidateCreation(req)
	if !result.Valid {
		return nil, &ValidationError{Result: result}
	}

	if mod := ScanContent(req.Title + "\n" + req.Premise + "\n" + req.CustomPrompt); mod.Blocked() {
		s.logger.Info("Creation input blocked by moderation",
			zap.String("userID", userID.String()),
			zap.Int("score", mod.Score),
			zap.Strings("matches", mod.Matches),
		)
		return nil, fmt.Errorf("%w: %s", models.ErrContentBlocked, strings.Join(mod.Matches, ", "))
	}

	estimate := Estimate(req.Mode, req.Length)
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TokensRemaining < estimate {
		return nil, models.ErrInsufficientTokens
	}

	story := &models.Story{
		UserID:  userID,
		Title:   req.Title,
		Genre:   req.Genre,
		Premise: req.Premise,
		Mode:    req.Mode,
		Status:  models.StatusDraft,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return nil, err
	}
	if err := s.stories.UpdateStatus(ctx, story.ID, models.StatusInProgress); err != nil {
		return nil, err
	}
	story.Status = models.StatusInProgress
	s.publishProgress(ctx, story.ID, userID, models.ProgressStarted, 1, foundationSteps, "generation started")

	systemPrompt, userInput := s.prompts.FoundationPrompt(ctx, req)
	text, usage, err := s.generateWithCache(ctx, userID.String(), systemPrompt, userInput)
	if err != nil {
		s.failGeneration(ctx, story, models.OperationFoundation, err)
		return nil, models.ErrAIServiceUnavailable
	}
	s.publishProgress(ctx, story.ID, userID, models.ProgressStep, 2, foundationSteps, "model response received")

	foundation, err := models.ParseFoundation(text, req.Mode)
	if err != nil {
		s.failGeneration(ctx, story, models.OperationFoundation, err)
		return nil, err
	}
	if mod := ScanContent(foundation.Synopsis); mod.Blocked() {
		s.failGeneration(ctx, story, models.OperationFoundation, models.ErrContentBlocked)
		return nil, models.ErrContentBlocked
	}
	s.publishProgress(ctx, story.ID, userID, models.ProgressStep, 3, foundationSteps, "foundation validated")

	if err := s.stories.SetFoundation(ctx, story.ID, foundation, usage.TotalTokens, usage.EstimatedCostUSD); err != nil {
		s.failGeneration(ctx, story, models.OperationFoundation, err)
		return nil, err
	}

	credits := CreditsForUsage(usage)
	s.chargeAndLog(ctx, userID, &story.ID, models.OperationFoundation, usage, credits)
	if err := s.profiles.RecordUsage(ctx, userID, 0, 1); err != nil {
		s.logger.Warn("Failed to record usage counters", zap.Error(err), zap.String("userID", userID.String()))
	}
	s.storeFacts(ctx, story.ID, foundation)
	s.publishProgress(ctx, story.ID, userID, models.ProgressCompleted, foundationSteps, foundationSteps, "story completed")

	completed, err := s.stories.GetByID(ctx, story.ID)
	if err != nil {
		return nil, err
	}
	return &models.StoryResponse{
		Story:          completed,
		CreditsCharged: credits,
		TokensUsed:     usage.TotalTokens,
		Warnings:       result.Warnings,
	}, nil
}

// GenerateChapter produces the next sequential chapter for an owned story.
func (s *StoryService) GenerateChapter(ctx context.Context, userID, storyID uuid.UUID, req models.CreateChapterRequest) (*models.ChapterResponse, error) {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Foundation == nil {
		return nil, fmt.Errorf("%w: story has no foundation yet", models.ErrBadRequest)
	}

	if mod := ScanContent(req.Title + "\n" + req.Guidance); mod.Blocked() {
		return nil, fmt.Errorf("%w: %s", models.ErrContentBlocked, strings.Join(mod.Matches, ", "))
	}

	estimate := Estimate(story.Mode, LengthMedium)
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TokensRemaining < estimate {
		return nil, models.ErrInsufficientTokens
	}

	count, err := s.chapters.CountByStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	chapterNumber := count + 1
	s.publishProgress(ctx, storyID, userID, models.ProgressStarted, 1, chapterSteps, fmt.Sprintf("chapter %d started", chapterNumber))

	factBlock := s.loadFactBlock(ctx, storyID)
	systemPrompt, userInput := s.prompts.ChapterPrompt(ctx, story, factBlock, chapterNumber, req)

	params := models.GenerationParams{MaxTokens: &s.cfg.AIMaxTokens}
	text, usage, err := s.ai.GenerateText(ctx, userID.String(), systemPrompt, userInput, params)
	if err != nil {
		s.logGeneration(ctx, userID, &storyID, models.OperationChapter, models.UsageInfo{}, 0, models.GenStatusFailed)
		s.publishProgress(ctx, storyID, userID, models.ProgressFailed, 2, chapterSteps, "generation failed")
		return nil, models.ErrAIServiceUnavailable
	}
	s.publishProgress(ctx, storyID, userID, models.ProgressStep, 2, chapterSteps, "model response received")

	if mod := ScanContent(text); mod.Blocked() {
		s.logGeneration(ctx, userID, &storyID, models.OperationChapter, usage, 0, models.GenStatusFailed)
		s.publishProgress(ctx, storyID, userID, models.ProgressFailed, 2, chapterSteps, "content blocked")
		return nil, models.ErrContentBlocked
	}

	title, content := parseChapterText(text)
	if req.Title != "" {
		title = req.Title
	}
	if title == "" {
		title = fmt.Sprintf("Chapter %d", chapterNumber)
	}
	words := countWords(content)

	chapter := &models.Chapter{
		StoryID:           storyID,
		ChapterNumber:     chapterNumber,
		Title:             title,
		Content:           content,
		WordCount:         words,
		TokensUsed:        usage.TotalTokens,
		GenerationCostUSD: usage.EstimatedCostUSD,
	}
	if err := s.chapters.Create(ctx, chapter); err != nil {
		s.publishProgress(ctx, storyID, userID, models.ProgressFailed, 3, chapterSteps, "chapter save failed")
		return nil, err
	}
	if err := s.stories.AddChapterStats(ctx, storyID, words, usage.TotalTokens, usage.EstimatedCostUSD); err != nil {
		s.logger.Warn("Failed to update story chapter stats", zap.Error(err), zap.String("storyID", storyID.String()))
	}
	s.publishProgress(ctx, storyID, userID, models.ProgressStep, 3, chapterSteps, "chapter saved")

	credits := CreditsForUsage(usage)
	s.chargeAndLog(ctx, userID, &storyID, models.OperationChapter, usage, credits)
	if err := s.profiles.RecordUsage(ctx, userID, words, 0); err != nil {
		s.logger.Warn("Failed to record usage counters", zap.Error(err), zap.String("userID", userID.String()))
	}
	s.publishProgress(ctx, storyID, userID, models.ProgressCompleted, chapterSteps, chapterSteps, fmt.Sprintf("chapter %d completed", chapterNumber))

	return &models.ChapterResponse{
		Chapter:        chapter,
		CreditsCharged: credits,
		TokensUsed:     usage.TotalTokens,
	}, nil
}

// GetStory returns an owned story.
func (s *StoryService) GetStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	return s.getOwnedStory(ctx, userID, storyID)
}

// ListStories returns a cursor page of the user's stories, newest first.
func (s *StoryService) ListStories(ctx context.Context, userID uuid.UUID, cursor string, limit int) (*models.StoryListResponse, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	cursorTime, cursorID, err := utils.DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	stories, err := s.stories.ListByUser(ctx, userID, cursorTime, cursorID, limit+1)
	if err != nil {
		return nil, err
	}

	resp := &models.StoryListResponse{Stories: stories}
	if len(stories) > limit {
		resp.Stories = stories[:limit]
		last := resp.Stories[limit-1]
		resp.NextCursor = utils.EncodeCursor(last.CreatedAt, last.ID)
	}
	return resp, nil
}

// ListChapters returns all chapters of an owned story in order.
func (s *StoryService) ListChapters(ctx context.Context, userID, storyID uuid.UUID) ([]models.Chapter, error) {
	if _, err := s.getOwnedStory(ctx, userID, storyID); err != nil {
		return nil, err
	}
	return s.chapters.ListByStory(ctx, storyID)
}

// GetChapter returns one chapter of an owned story by its number.
func (s *StoryService) GetChapter(ctx context.Context, userID, storyID uuid.UUID, number int) (*models.Chapter, error) {
	if _, err := s.getOwnedStory(ctx, userID, storyID); err != nil {
		return nil, err
	}
	return s.chapters.GetByNumber(ctx, storyID, number)
}

// UpdateStory changes the title and/or status of an owned story. Status
// changes must follow the lifecycle transition rules.
func (s *StoryService) UpdateStory(ctx context.Context, userID, storyID uuid.UUID, req models.UpdateStoryRequest) (*models.Story, error) {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > TitleMaxLength {
			return nil, fmt.Errorf("%w: title must be 1-%d characters", models.ErrInvalidInput, TitleMaxLength)
		}
		if err := s.stories.UpdateTitle(ctx, storyID, title); err != nil {
			return nil, err
		}
	}
	if req.Status != nil {
		if !models.CanTransition(story.Status, *req.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, story.Status, *req.Status)
		}
		if err := s.stories.UpdateStatus(ctx, storyID, *req.Status); err != nil {
			return nil, err
		}
	}
	return s.stories.GetByID(ctx, storyID)
}

// DeleteStory removes an owned draft story. Anything past draft has billed
// generation output behind it and is kept for the earnings ledger.
func (s *StoryService) DeleteStory(ctx context.Context, userID, storyID uuid.UUID) error {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return err
	}
	if story.Status != models.StatusDraft {
		return models.ErrStoryNotDeletable
	}
	return s.stories.Delete(ctx, storyID)
}

// GetUniverse returns the universe setup of an owned story.
func (s *StoryService) GetUniverse(ctx context.Context, userID, storyID uuid.UUID) (*models.UniverseSetup, error) {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Foundation == nil || story.Foundation.Universe == nil {
		return nil, models.ErrNotFound
	}
	return story.Foundation.Universe, nil
}

// CreateUniverse generates a universe setup from the story foundation and
// stores it. An existing setup is replaced.
func (s *StoryService) CreateUniverse(ctx context.Context, userID, storyID uuid.UUID) (*models.UniverseSetup, error) {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Foundation == nil {
		return nil, fmt.Errorf("%w: story has no foundation yet", models.ErrBadRequest)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TokensRemaining < universeCreditEstimate {
		return nil, models.ErrInsufficientTokens
	}

	systemPrompt, userInput := s.prompts.UniversePrompt(ctx, story)
	params := models.GenerationParams{MaxTokens: &s.cfg.AIMaxTokens}
	text, usage, err := s.ai.GenerateText(ctx, userID.String(), systemPrompt, userInput, params)
	if err != nil {
		s.logGeneration(ctx, userID, &storyID, models.OperationUniverse, models.UsageInfo{}, 0, models.GenStatusFailed)
		return nil, models.ErrAIServiceUnavailable
	}

	universe, err := models.ParseUniverseSetup(text)
	if err != nil {
		s.logGeneration(ctx, userID, &storyID, models.OperationUniverse, usage, 0, models.GenStatusFailed)
		return nil, err
	}
	if err := s.stories.UpdateUniverse(ctx, storyID, universe); err != nil {
		return nil, err
	}

	credits := CreditsForUsage(usage)
	s.chargeAndLog(ctx, userID, &storyID, models.OperationUniverse, usage, credits)
	return universe, nil
}

// PatchUniverse merges the non-nil fields of the patch into the stored setup.
func (s *StoryService) PatchUniverse(ctx context.Context, userID, storyID uuid.UUID, patch models.UniverseSetupPatch) (*models.UniverseSetup, error) {
	story, err := s.getOwnedStory(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if story.Foundation == nil || story.Foundation.Universe == nil {
		return nil, models.ErrNotFound
	}

	universe := *story.Foundation.Universe
	if patch.WorldName != nil {
		if strings.TrimSpace(*patch.WorldName) == "" {
			return nil, fmt.Errorf("%w: world_name cannot be empty", models.ErrInvalidInput)
		}
		universe.WorldName = *patch.WorldName
	}
	if patch.Rules != nil {
		universe.Rules = *patch.Rules
	}
	if patch.Lore != nil {
		universe.Lore = *patch.Lore
	}
	if patch.Constraints != nil {
		universe.Constraints = *patch.Constraints
	}

	if err := s.stories.UpdateUniverse(ctx, storyID, &universe); err != nil {
		return nil, err
	}
	return &universe, nil
}

// --- pipeline internals ---

func (s *StoryService) getOwnedStory(ctx context.Context, userID, storyID uuid.UUID) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.UserID != userID {
		return nil, models.ErrNotStoryOwner
	}
	return story, nil
}

// generateWithCache serves identical foundation prompts from the response
// cache; a hit still bills the user for the recorded usage.
func (s *StoryService) generateWithCache(ctx context.Context, userID, systemPrompt, userInput string) (string, models.UsageInfo, error) {
	key := responseCacheKey(s.cfg.AIModel, systemPrompt, userInput)
	if s.respCache != nil {
		text, usage, ok, err := s.respCache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Response cache lookup failed", zap.Error(err))
		} else if ok {
			s.logger.Debug("Response cache hit", zap.String("key", key))
			return text, usage, nil
		}
	}

	params := models.GenerationParams{MaxTokens: &s.cfg.AIMaxTokens}
	text, usage, err := s.ai.GenerateText(ctx, userID, systemPrompt, userInput, params)
	if err != nil {
		return "", usage, err
	}

	if s.respCache != nil {
		if err := s.respCache.Set(ctx, key, text, usage, s.cfg.ResponseCacheTTL); err != nil {
			s.logger.Warn("Response cache store failed", zap.Error(err))
		}
	}
	return text, usage, nil
}

func responseCacheKey(model, systemPrompt, userInput string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(systemPrompt))
	h.Write([]byte{0})
	h.Write([]byte(userInput))
	return hex.EncodeToString(h.Sum(nil))
}

// chargeAndLog charges the balance atomically and appends the generation log
// row. A failed charge never loses the generation: the row is written with
// the deduct_failed status and the ledger stays non-negative.
func (s *StoryService) chargeAndLog(ctx context.Context, userID uuid.UUID, storyID *uuid.UUID, operation string, usage models.UsageInfo, credits int) {
	status := models.GenStatusSuccess
	if err := s.profiles.DeductTokens(ctx, userID, credits); err != nil {
		status = models.GenStatusDeductFailed
		s.logger.Warn("Token deduction failed after generation",
			zap.Error(err),
			zap.String("userID", userID.String()),
			zap.String("operation", operation),
			zap.Int("credits", credits),
		)
	}
	s.logGeneration(ctx, userID, storyID, operation, usage, credits, status)
}

func (s *StoryService) logGeneration(ctx context.Context, userID uuid.UUID, storyID *uuid.UUID, operation string, usage models.UsageInfo, credits int, status string) {
	entry := &models.GenerationLog{
		UserID:           userID,
		StoryID:          storyID,
		Operation:        operation,
		Model:            s.cfg.AIModel,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		CostUSD:          usage.EstimatedCostUSD,
		CreditsCharged:   credits,
		Status:           status,
	}
	if err := s.genLogs.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write generation log", zap.Error(err), zap.String("operation", operation))
	}
}

// failGeneration marks the story errored and records the failed call.
func (s *StoryService) failGeneration(ctx context.Context, story *models.Story, operation string, cause error) {
	s.logger.Warn("Generation pipeline failed",
		zap.Error(cause),
		zap.String("storyID", story.ID.String()),
		zap.String("operation", operation),
	)
	if err := s.stories.UpdateStatus(ctx, story.ID, models.StatusError); err != nil {
		s.logger.Error("Failed to mark story errored", zap.Error(err), zap.String("storyID", story.ID.String()))
	}
	s.logGeneration(ctx, story.UserID, &story.ID, operation, models.UsageInfo{}, 0, models.GenStatusFailed)
	s.publishProgress(ctx, story.ID, story.UserID, models.ProgressFailed, 0, foundationSteps, cause.Error())
}

// storeFacts extracts facts from the foundation, persists them SFSL-encoded
// and mirrors the block into the fact cache for prompt assembly.
func (s *StoryService) storeFacts(ctx context.Context, storyID uuid.UUID, foundation *models.Foundation) {
	facts := ExtractFacts(foundation)
	for i := range facts {
		facts[i].StoryID = storyID
		facts[i].FactValue = EncodeSFSLValue(facts[i].FactValue)
		if err := s.facts.Upsert(ctx, &facts[i]); err != nil {
			s.logger.Warn("Failed to upsert story fact",
				zap.Error(err),
				zap.String("storyID", storyID.String()),
				zap.String("factKey", facts[i].FactKey),
			)
		}
	}
	if s.factCache != nil && len(facts) > 0 {
		if err := s.factCache.SetFacts(ctx, storyID.String(), joinFactLines(facts), s.cfg.FactCacheTTL); err != nil {
			s.logger.Warn("Failed to cache story facts", zap.Error(err), zap.String("storyID", storyID.String()))
		}
	}
}

// loadFactBlock prefers the cache and falls back to the facts table.
func (s *StoryService) loadFactBlock(ctx context.Context, storyID uuid.UUID) string {
	if s.factCache != nil {
		block, ok, err := s.factCache.GetFacts(ctx, storyID.String())
		if err != nil {
			s.logger.Warn("Fact cache lookup failed", zap.Error(err), zap.String("storyID", storyID.String()))
		} else if ok {
			return block
		}
	}
	facts, err := s.facts.ListByStory(ctx, storyID)
	if err != nil {
		s.logger.Warn("Failed to load story facts", zap.Error(err), zap.String("storyID", storyID.String()))
		return ""
	}
	// Values come back from the table already encoded.
	block := joinFactLines(facts)
	if s.factCache != nil && block != "" {
		if err := s.factCache.SetFacts(ctx, storyID.String(), block, s.cfg.FactCacheTTL); err != nil {
			s.logger.Warn("Failed to cache story facts", zap.Error(err), zap.String("storyID", storyID.String()))
		}
	}
	return block
}

func (s *StoryService) publishProgress(ctx context.Context, storyID, userID uuid.UUID, state string, step, total int, message string) {
	if s.progress == nil {
		return
	}
	event := models.ProgressEvent{
		StoryID:    storyID,
		UserID:     userID,
		State:      state,
		Step:       step,
		TotalSteps: total,
		Message:    message,
		At:         time.Now().UTC(),
	}
	if err := s.progress.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish progress event",
			zap.Error(err),
			zap.String("storyID", storyID.String()),
			zap.String("state", state),
		)
	}
}

// parseChapterText splits model output into the title line and the body.
func parseChapterText(raw string) (title, content string) {
	trimmed := strings.TrimSpace(raw)
	const marker = "TITLE:"
	if strings.HasPrefix(trimmed, marker) {
		newline := strings.IndexByte(trimmed, '\n')
		if newline < 0 {
			return strings.TrimSpace(trimmed[len(marker):]), ""
		}
		title = strings.TrimSpace(trimmed[len(marker):newline])
		content = strings.TrimSpace(trimmed[newline+1:])
		return title, content
	}
	return "", trimmed
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
