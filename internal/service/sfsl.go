package service

import (
	"fmt"
	"strings"

	"infinite-pages/internal/models"
)

// SFSL (story fact storage language) is the compact reversible encoding
// used for cached story facts. Values get a dictionary pass that abbreviates
// recurring narrative vocabulary, and fact rows serialize to one line each:
//
//	type|key=value
//
// The encoding exists to keep large casts inside later prompt budgets; it is
// not a compression format in the information-theoretic sense.

// sfslDictionary maps narrative vocabulary to short codes. Order matters:
// longer phrases are listed first so they win over their substrings.
var sfslDictionary = []struct {
	word string
	code string
}{
	{"protagonist", "%P"},
	{"antagonist", "%A"},
	{"character", "%C"},
	{"relationship", "%R"},
	{"motivation", "%M"},
	{"location", "%L"},
	{"chapter", "%H"},
	{"because", "%b"},
	{"between", "%w"},
	{"against", "%g"},
	{"discovers", "%d"},
	{"secretly", "%s"},
	{"the", "%t"},
}

const (
	sfslEscape    = "%%"
	sfslNewline   = "%n"
	sfslFieldSep  = "|"
	sfslValueSep  = "="
	sfslRecordSep = "\n"
)

// EncodeSFSLValue applies the dictionary pass to a single fact value. Raw
// newlines collide with the record separator, so they are escaped too; the
// percent escape runs first, which keeps a literal "%n" in the input
// distinguishable from an escaped newline.
func EncodeSFSLValue(value string) string {
	encoded := strings.ReplaceAll(value, "%", sfslEscape)
	encoded = strings.ReplaceAll(encoded, sfslRecordSep, sfslNewline)
	for _, entry := range sfslDictionary {
		encoded = strings.ReplaceAll(encoded, entry.word, entry.code)
	}
	return encoded
}

// DecodeSFSLValue reverses EncodeSFSLValue.
func DecodeSFSLValue(encoded string) string {
	// Escaped percents must survive the dictionary reversal, so hide them
	// behind a placeholder that no code can produce.
	const placeholder = "\x00"
	decoded := strings.ReplaceAll(encoded, sfslEscape, placeholder)
	decoded = strings.ReplaceAll(decoded, sfslNewline, sfslRecordSep)
	for _, entry := range sfslDictionary {
		decoded = strings.ReplaceAll(decoded, entry.code, entry.word)
	}
	return strings.ReplaceAll(decoded, placeholder, "%")
}

// EncodeFactBlock serializes facts with raw values into the SFSL block
// cached per story. Keys containing separator characters are sanitized on
// write.
func EncodeFactBlock(facts []models.StoryFact) string {
	encoded := make([]models.StoryFact, len(facts))
	for i, fact := range facts {
		encoded[i] = fact
		encoded[i].FactValue = EncodeSFSLValue(fact.FactValue)
	}
	return joinFactLines(encoded)
}

// joinFactLines assembles the block from facts whose values are already
// SFSL-encoded, as they are when read back from the facts table.
func joinFactLines(facts []models.StoryFact) string {
	var b strings.Builder
	for i, fact := range facts {
		if i > 0 {
			b.WriteString(sfslRecordSep)
		}
		key := strings.NewReplacer(sfslFieldSep, " ", sfslValueSep, " ", sfslRecordSep, " ").Replace(fact.FactKey)
		b.WriteString(fact.FactType)
		b.WriteString(sfslFieldSep)
		b.WriteString(key)
		b.WriteString(sfslValueSep)
		b.WriteString(fact.FactValue)
	}
	return b.String()
}

// DecodeFactBlock parses an SFSL block back into facts. Malformed lines are
// rejected rather than skipped so cache corruption surfaces loudly.
func DecodeFactBlock(block string) ([]models.StoryFact, error) {
	if block == "" {
		return nil, nil
	}
	lines := strings.Split(block, sfslRecordSep)
	facts := make([]models.StoryFact, 0, len(lines))
	for i, line := range lines {
		typeRest := strings.SplitN(line, sfslFieldSep, 2)
		if len(typeRest) != 2 {
			return nil, fmt.Errorf("malformed SFSL line %d: missing field separator", i)
		}
		keyValue := strings.SplitN(typeRest[1], sfslValueSep, 2)
		if len(keyValue) != 2 {
			return nil, fmt.Errorf("malformed SFSL line %d: missing value separator", i)
		}
		facts = append(facts, models.StoryFact{
			FactType:  typeRest[0],
			FactKey:   keyValue[0],
			FactValue: DecodeSFSLValue(keyValue[1]),
		})
	}
	return facts, nil
}

// ExtractFacts pulls cacheable facts out of a validated foundation.
func ExtractFacts(f *models.Foundation) []models.StoryFact {
	if f == nil {
		return nil
	}
	var facts []models.StoryFact
	for _, c := range f.Characters {
		value := c.Role
		if c.Description != "" {
			value += ": " + c.Description
		}
		if c.Motivation != "" {
			value += " (" + c.Motivation + ")"
		}
		facts = append(facts, models.StoryFact{
			FactType:  models.FactTypeCharacter,
			FactKey:   c.Name,
			FactValue: value,
		})
	}
	if f.Setting.Place != "" {
		value := f.Setting.Place
		if f.Setting.Time != "" {
			value += ", " + f.Setting.Time
		}
		if f.Setting.Description != "" {
			value += ": " + f.Setting.Description
		}
		facts = append(facts, models.StoryFact{
			FactType:  models.FactTypeLocation,
			FactKey:   "primary_setting",
			FactValue: value,
		})
	}
	for i, theme := range f.Themes {
		facts = append(facts, models.StoryFact{
			FactType:  models.FactTypeTheme,
			FactKey:   fmt.Sprintf("theme_%d", i+1),
			FactValue: theme,
		})
	}
	return facts
}
