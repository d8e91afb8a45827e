package service

import (
	"fmt"
	"strings"

	"infinite-pages/internal/models"
)

// Content limits enforced at the API boundary.
const (
	TitleMaxLength       = 150
	PremiseMinLength     = 10
	PremiseMaxLength     = 2000
	DescriptionMinLength = 20
	CustomPromptMin      = 15
	NovelChaptersMin     = 5
	NovelChaptersMax     = 50
	ChoiceEndingsMin     = 2
	ChoiceEndingsMax     = 10
	choiceEndingsAdvised = 6
)

// KnownGenres is the accepted genre enum, mirrored by the frontend picker.
var KnownGenres = []string{
	"fantasy", "sci-fi", "mystery", "thriller", "romance",
	"horror", "adventure", "literary", "historical", "comedy",
}

func isKnownGenre(genre string) bool {
	for _, g := range KnownGenres {
		if g == genre {
			return true
		}
	}
	return false
}

// ValidateCreation runs the per-mode field checks for a creation request.
// Pure: no side effects, deterministic output ordering. Blocking problems
// land in Errors; advisory ones in Warnings. An unknown mode is validated
// against the base story field set with a warning appended.
func ValidateCreation(req models.CreateStoryRequest) models.ValidationResult {
	var result models.ValidationResult

	mode := req.Mode
	if !models.IsKnownMode(mode) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("unknown mode %q, validating as %q", mode, models.ModeStory))
		mode = models.ModeStory
	}

	// Base field set, shared by every mode.
	if len(req.Title) > TitleMaxLength {
		result.Errors = append(result.Errors,
			fmt.Sprintf("title must be at most %d characters", TitleMaxLength))
	}
	if req.Genre == "" {
		result.Errors = append(result.Errors, "genre is required")
	} else if !isKnownGenre(req.Genre) {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown genre %q", req.Genre))
	}

	premise := strings.TrimSpace(req.Premise)
	switch {
	case premise == "" && mode != models.ModeAIBuilder:
		result.Errors = append(result.Errors, "premise is required")
	case premise != "" && len(premise) < PremiseMinLength:
		result.Errors = append(result.Errors,
			fmt.Sprintf("premise must be at least %d characters", PremiseMinLength))
	case len(premise) > PremiseMaxLength:
		result.Errors = append(result.Errors,
			fmt.Sprintf("premise must be at most %d characters", PremiseMaxLength))
	}

	switch mode {
	case models.ModeNovel:
		if strings.TrimSpace(req.Description) == "" {
			result.Errors = append(result.Errors, "description is required for novels")
		} else if len(strings.TrimSpace(req.Description)) < DescriptionMinLength {
			result.Errors = append(result.Errors,
				fmt.Sprintf("description must be at least %d characters", DescriptionMinLength))
		}
		if req.ChapterCount != 0 && (req.ChapterCount < NovelChaptersMin || req.ChapterCount > NovelChaptersMax) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("chapter count must be between %d and %d", NovelChaptersMin, NovelChaptersMax))
		}

	case models.ModeChoiceBook:
		if req.EndingCount < ChoiceEndingsMin {
			result.Errors = append(result.Errors,
				fmt.Sprintf("choice books need at least %d endings", ChoiceEndingsMin))
		} else if req.EndingCount > ChoiceEndingsMax {
			result.Errors = append(result.Errors,
				fmt.Sprintf("choice books support at most %d endings", ChoiceEndingsMax))
		} else if req.EndingCount > choiceEndingsAdvised {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("more than %d endings can dilute each branch", choiceEndingsAdvised))
		}

	case models.ModeAIBuilder:
		prompt := strings.TrimSpace(req.CustomPrompt)
		if prompt == "" {
			result.Errors = append(result.Errors, "custom prompt is required for the AI builder")
		} else if len(prompt) < CustomPromptMin {
			result.Warnings = append(result.Warnings,
				"very short prompts tend to produce generic stories")
		}
	}

	if req.Length != "" {
		switch req.Length {
		case LengthShort, LengthMedium, LengthLong:
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("unknown length %q", req.Length))
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
