package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Foundation is the structured outline seeded for a story by the first
// generation call. The Type tag matches the story mode and decides which
// sections must be present; everything is validated at the API boundary
// before any component trusts it.
type Foundation struct {
	Type       string              `json:"type"`
	Title      string              `json:"title"`
	Synopsis   string              `json:"synopsis"`
	Characters []FoundationCharacter `json:"characters"`
	Setting    FoundationSetting   `json:"setting"`
	Themes     []string            `json:"themes,omitempty"`

	// Novel mode only.
	ChapterOutline []ChapterOutlineEntry `json:"chapter_outline,omitempty"`

	// Choice-book mode only.
	Endings       []FoundationEnding `json:"endings,omitempty"`
	DecisionStyle string             `json:"decision_style,omitempty"`

	// Universe attributes, editable through the universe setup endpoints.
	Universe *UniverseSetup `json:"universe,omitempty"`
}

type FoundationCharacter struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	Motivation  string `json:"motivation,omitempty"`
}

type FoundationSetting struct {
	Time        string `json:"time"`
	Place       string `json:"place"`
	Description string `json:"description,omitempty"`
}

type ChapterOutlineEntry struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

type FoundationEnding struct {
	Label   string `json:"label"`
	Summary string `json:"summary"`
	Tone    string `json:"tone,omitempty"`
}

// UniverseSetup captures the shared-world attributes of a story: the rules
// and lore that later generation calls must stay consistent with.
type UniverseSetup struct {
	WorldName   string   `json:"world_name"`
	Rules       []string `json:"rules,omitempty"`
	Lore        string   `json:"lore,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// ParseFoundation decodes raw generated JSON into a Foundation and validates
// it against the story mode. Model output frequently wraps the JSON object in
// prose or markdown fences, so the first object is extracted before decoding.
func ParseFoundation(raw string, mode string) (*Foundation, error) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrFoundationInvalid)
	}

	var f Foundation
	if err := json.Unmarshal([]byte(jsonText), &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFoundationInvalid, err)
	}
	if f.Type == "" {
		f.Type = mode
	}
	if err := f.Validate(mode); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate enforces the per-mode schema of the tagged union.
func (f *Foundation) Validate(mode string) error {
	if f.Type != mode {
		return fmt.Errorf("%w: type %q does not match mode %q", ErrFoundationInvalid, f.Type, mode)
	}
	if strings.TrimSpace(f.Synopsis) == "" {
		return fmt.Errorf("%w: synopsis is required", ErrFoundationInvalid)
	}
	if len(f.Characters) == 0 {
		return fmt.Errorf("%w: at least one character is required", ErrFoundationInvalid)
	}
	for i, c := range f.Characters {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: character %d has no name", ErrFoundationInvalid, i)
		}
	}

	switch mode {
	case ModeNovel:
		if len(f.ChapterOutline) == 0 {
			return fmt.Errorf("%w: novel foundation requires a chapter outline", ErrFoundationInvalid)
		}
	case ModeChoiceBook:
		if len(f.Endings) < 2 {
			return fmt.Errorf("%w: choice-book foundation requires at least 2 endings", ErrFoundationInvalid)
		}
	case ModeStory, ModeAIBuilder:
		// Base sections only.
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrFoundationInvalid, mode)
	}
	return nil
}

// ParseUniverseSetup decodes raw generated JSON into a UniverseSetup. The
// same prose-stripping applies as for foundations.
func ParseUniverseSetup(raw string) (*UniverseSetup, error) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return nil, fmt.Errorf("%w: no JSON object in model output", ErrFoundationInvalid)
	}
	var u UniverseSetup
	if err := json.Unmarshal([]byte(jsonText), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFoundationInvalid, err)
	}
	if strings.TrimSpace(u.WorldName) == "" {
		return nil, fmt.Errorf("%w: world_name is required", ErrFoundationInvalid)
	}
	return &u, nil
}

// extractJSONObject returns the first balanced top-level JSON object in s.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
