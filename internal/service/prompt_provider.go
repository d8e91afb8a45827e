package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"infinite-pages/internal/database"
	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"go.uber.org/zap"
)

const promptLanguage = "en"

// Built-in system prompt templates, used when no override row exists in the
// prompts table. Every foundation template demands a bare JSON object so the
// response can be schema-validated.
var defaultPrompts = map[string]string{
	models.PromptKeyStoryFoundation: `You are a story architect. From the user's genre and premise, design a story foundation.
Respond with a single JSON object and nothing else, using this shape:
{"type":"story","title":"...","synopsis":"...","characters":[{"name":"...","role":"...","description":"...","motivation":"..."}],"setting":{"time":"...","place":"...","description":"..."},"themes":["..."]}
Invent vivid, internally consistent details. Two to five characters.`,

	models.PromptKeyNovelFoundation: `You are a novel architect. From the user's genre, premise and description, design a novel foundation.
Respond with a single JSON object and nothing else, using this shape:
{"type":"novel","title":"...","synopsis":"...","characters":[...],"setting":{...},"themes":[...],"chapter_outline":[{"number":1,"title":"...","summary":"..."}]}
The chapter outline must cover the requested chapter count with one entry per chapter.`,

	models.PromptKeyChoiceFoundation: `You are an interactive fiction architect. Design a branching choice-book foundation.
Respond with a single JSON object and nothing else, using this shape:
{"type":"choice-book","title":"...","synopsis":"...","characters":[...],"setting":{...},"endings":[{"label":"...","summary":"...","tone":"..."}],"decision_style":"..."}
Provide exactly the requested number of endings, each meaningfully distinct.`,

	models.PromptKeyAIBuilder: `You are a freeform story architect. Interpret the user's instructions and design a story foundation.
Respond with a single JSON object and nothing else, using this shape:
{"type":"ai-builder","title":"...","synopsis":"...","characters":[...],"setting":{...},"themes":[...]}
Fill gaps in the instructions with coherent inventions rather than questions.`,

	models.PromptKeyChapter: `You are a chapter writer continuing an established story. Stay consistent with the foundation and the known facts.
Write the full chapter prose. Begin with a line "TITLE: <chapter title>", then a blank line, then the chapter text. Do not include anything else.`,

	models.PromptKeyUniverse: `You are a worldbuilder. From the story synopsis and characters, design the shared universe the story lives in.
Respond with a single JSON object and nothing else, using this shape:
{"world_name":"...","rules":["..."],"lore":"...","constraints":["..."]}
Rules are hard laws of the world; constraints are things later chapters must never contradict.`,
}

// foundationPromptKey maps a creation mode to its template key.
func foundationPromptKey(mode string) string {
	switch mode {
	case models.ModeNovel:
		return models.PromptKeyNovelFoundation
	case models.ModeChoiceBook:
		return models.PromptKeyChoiceFoundation
	case models.ModeAIBuilder:
		return models.PromptKeyAIBuilder
	default:
		return models.PromptKeyStoryFoundation
	}
}

// PromptProvider assembles system prompts and user inputs for generation
// calls, preferring stored template overrides over the built-in defaults.
type PromptProvider struct {
	prompts interfaces.PromptRepository
	logger  *zap.Logger
}

// NewPromptProvider creates a PromptProvider. The repository may be nil in
// tests; defaults are then always used.
func NewPromptProvider(prompts interfaces.PromptRepository, logger *zap.Logger) *PromptProvider {
	return &PromptProvider{
		prompts: prompts,
		logger:  logger.Named("PromptProvider"),
	}
}

func (p *PromptProvider) systemPrompt(ctx context.Context, key string) string {
	if p.prompts != nil {
		prompt, err := p.prompts.GetByKeyAndLanguage(ctx, key, promptLanguage)
		if err == nil && strings.TrimSpace(prompt.Content) != "" {
			return prompt.Content
		}
		if err != nil && !errors.Is(err, database.ErrPromptNotFound) {
			p.logger.Warn("Prompt lookup failed, using default", zap.Error(err), zap.String("key", key))
		}
	}
	return defaultPrompts[key]
}

// FoundationPrompt returns the system prompt and user input for the first
// generation call of a story.
func (p *PromptProvider) FoundationPrompt(ctx context.Context, req models.CreateStoryRequest) (system string, user string) {
	system = p.systemPrompt(ctx, foundationPromptKey(req.Mode))

	var b strings.Builder
	fmt.Fprintf(&b, "Genre: %s\n", req.Genre)
	if req.Title != "" {
		fmt.Fprintf(&b, "Working title: %s\n", req.Title)
	}
	if req.Premise != "" {
		fmt.Fprintf(&b, "Premise: %s\n", req.Premise)
	}
	switch req.Mode {
	case models.ModeNovel:
		fmt.Fprintf(&b, "Description: %s\n", req.Description)
		chapters := req.ChapterCount
		if chapters == 0 {
			chapters = NovelChaptersMin
		}
		fmt.Fprintf(&b, "Chapter count: %d\n", chapters)
	case models.ModeChoiceBook:
		fmt.Fprintf(&b, "Ending count: %d\n", req.EndingCount)
	case models.ModeAIBuilder:
		fmt.Fprintf(&b, "Instructions: %s\n", req.CustomPrompt)
	}
	return system, b.String()
}

// ChapterPrompt returns the system prompt and user input for generating the
// next chapter. The SFSL fact block keeps continuity without resending the
// full foundation.
func (p *PromptProvider) ChapterPrompt(ctx context.Context, story *models.Story, factBlock string, chapterNumber int, req models.CreateChapterRequest) (system string, user string) {
	system = p.systemPrompt(ctx, models.PromptKeyChapter)

	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s (%s, %s)\n", story.Title, story.Genre, story.Mode)
	if story.Foundation != nil {
		fmt.Fprintf(&b, "Synopsis: %s\n", story.Foundation.Synopsis)
		if story.Foundation.Universe != nil && story.Foundation.Universe.WorldName != "" {
			u := story.Foundation.Universe
			fmt.Fprintf(&b, "World: %s\n", u.WorldName)
			if len(u.Rules) > 0 {
				fmt.Fprintf(&b, "World rules: %s\n", strings.Join(u.Rules, "; "))
			}
		}
		if outline := outlineEntry(story.Foundation, chapterNumber); outline != nil {
			fmt.Fprintf(&b, "Planned chapter: %s: %s\n", outline.Title, outline.Summary)
		}
	}
	if factBlock != "" {
		fmt.Fprintf(&b, "Known facts (SFSL):\n%s\n", factBlock)
	}
	fmt.Fprintf(&b, "Write chapter %d.\n", chapterNumber)
	if req.Title != "" {
		fmt.Fprintf(&b, "Chapter title: %s\n", req.Title)
	}
	if req.Guidance != "" {
		fmt.Fprintf(&b, "Guidance: %s\n", req.Guidance)
	}
	return system, b.String()
}

// UniversePrompt returns the system prompt and user input for generating a
// universe setup from an existing foundation.
func (p *PromptProvider) UniversePrompt(ctx context.Context, story *models.Story) (system string, user string) {
	system = p.systemPrompt(ctx, models.PromptKeyUniverse)

	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s (%s, %s)\n", story.Title, story.Genre, story.Mode)
	if story.Foundation != nil {
		fmt.Fprintf(&b, "Synopsis: %s\n", story.Foundation.Synopsis)
		for _, c := range story.Foundation.Characters {
			fmt.Fprintf(&b, "Character: %s (%s)\n", c.Name, c.Role)
		}
		if story.Foundation.Setting.Place != "" {
			fmt.Fprintf(&b, "Setting: %s, %s\n", story.Foundation.Setting.Place, story.Foundation.Setting.Time)
		}
	}
	return system, b.String()
}

func outlineEntry(f *models.Foundation, number int) *models.ChapterOutlineEntry {
	for i := range f.ChapterOutline {
		if f.ChapterOutline[i].Number == number {
			return &f.ChapterOutline[i]
		}
	}
	return nil
}
