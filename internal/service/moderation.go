package service

import (
	"regexp"
)

// Moderation severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Severity thresholds over the summed match weights.
const (
	mediumThreshold = 4
	highThreshold   = 8
)

// moderationRule is one weighted pattern of the static rule table.
type moderationRule struct {
	name    string
	pattern *regexp.Regexp
	weight  int
}

// moderationRules is the fixed scan table: explicit content, prompt
// injection and jailbreak phrasings. Weights reflect how strongly a single
// match should count toward the severity score.
var moderationRules = []moderationRule{
	// Prompt injection / jailbreak attempts score high on their own.
	{"injection_ignore_instructions", regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions|prompts?|rules)`), 8},
	{"injection_system_prompt", regexp.MustCompile(`(?i)(reveal|show|print|repeat)\s+(your\s+)?(system\s+prompt|initial\s+instructions)`), 8},
	{"injection_role_override", regexp.MustCompile(`(?i)you\s+are\s+now\s+(DAN|an?\s+unrestricted|an?\s+unfiltered)`), 8},
	{"jailbreak_developer_mode", regexp.MustCompile(`(?i)(developer|god|jailbreak)\s+mode`), 6},
	{"jailbreak_no_guidelines", regexp.MustCompile(`(?i)without\s+(any\s+)?(restrictions|limitations|guidelines|filters)`), 4},

	// Explicit or harmful content.
	{"explicit_sexual_minors", regexp.MustCompile(`(?i)(sexual|explicit|erotic)\b.{0,40}\b(child|minor|underage)`), 10},
	{"explicit_graphic", regexp.MustCompile(`(?i)\b(graphic|explicit)\s+(sexual|sex)\b`), 4},
	{"harm_instructions", regexp.MustCompile(`(?i)(how\s+to|instructions?\s+for)\s+(make|making|build|building)\s+(a\s+)?(bomb|explosive|weapon)`), 10},
	{"self_harm", regexp.MustCompile(`(?i)\b(kill|harm)\s+(myself|yourself)\b`), 6},

	// Mild flags that only matter in aggregate.
	{"profanity_strong", regexp.MustCompile(`(?i)\b(fuck|shit)\b`), 1},
	{"gore", regexp.MustCompile(`(?i)\b(dismember|disembowel|torture)\b`), 2},
}

// ModerationResult is the outcome of one scan.
type ModerationResult struct {
	Score    int      `json:"score"`
	Severity string   `json:"severity"`
	Matches  []string `json:"matches,omitempty"`
}

// Blocked reports whether the scanned text must not be processed further.
func (r ModerationResult) Blocked() bool {
	return r.Severity == SeverityHigh
}

// ScanContent runs the weighted rule table over the text. Each rule counts
// once regardless of how often it matches; the summed weights threshold
// into low/medium/high.
func ScanContent(text string) ModerationResult {
	result := ModerationResult{Severity: SeverityLow}
	for _, rule := range moderationRules {
		if rule.pattern.MatchString(text) {
			result.Score += rule.weight
			result.Matches = append(result.Matches, rule.name)
		}
	}
	switch {
	case result.Score >= highThreshold:
		result.Severity = SeverityHigh
	case result.Score >= mediumThreshold:
		result.Severity = SeverityMedium
	}
	return result
}
