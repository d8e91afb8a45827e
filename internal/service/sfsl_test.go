package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinite-pages/internal/models"
)

func TestSFSLValue_RoundTrip(t *testing.T) {
	cases := []string{
		"the protagonist secretly discovers the antagonist",
		"a 50% chance of rain",
		"plain text without vocabulary",
		"%P already looks like a code",
		"",
	}
	for _, original := range cases {
		decoded := DecodeSFSLValue(EncodeSFSLValue(original))
		assert.Equal(t, original, decoded, "round trip of %q", original)
	}
}

func TestEncodeSFSLValue_AbbreviatesVocabulary(t *testing.T) {
	encoded := EncodeSFSLValue("the protagonist")

	assert.NotContains(t, encoded, "protagonist")
	assert.Contains(t, encoded, "%P")
}

func TestFactBlock_RoundTrip(t *testing.T) {
	facts := []models.StoryFact{
		{FactType: models.FactTypeCharacter, FactKey: "Mira", FactValue: "protagonist: a cartographer because maps lie"},
		{FactType: models.FactTypeLocation, FactKey: "primary_setting", FactValue: "the drowned city, 1920s"},
		{FactType: models.FactTypeTheme, FactKey: "theme_1", FactValue: "memory against erasure"},
	}

	block := EncodeFactBlock(facts)
	decoded, err := DecodeFactBlock(block)

	require.NoError(t, err)
	require.Len(t, decoded, len(facts))
	for i := range facts {
		assert.Equal(t, facts[i].FactType, decoded[i].FactType)
		assert.Equal(t, facts[i].FactKey, decoded[i].FactKey)
		assert.Equal(t, facts[i].FactValue, decoded[i].FactValue)
	}
}

func TestFactBlock_MultilineValueRoundTrip(t *testing.T) {
	facts := []models.StoryFact{
		{FactType: models.FactTypeCharacter, FactKey: "Renn", FactValue: "guide: stern mentor\nkeeps a hidden ledger"},
		{FactType: models.FactTypeLocation, FactKey: "primary_setting", FactValue: "the archive, midnight"},
	}

	block := EncodeFactBlock(facts)
	// Newlines inside values must not leak into the record separator.
	assert.Len(t, strings.Split(block, "\n"), 2)

	decoded, err := DecodeFactBlock(block)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, "guide: stern mentor\nkeeps a hidden ledger", decoded[0].FactValue)
	assert.Equal(t, "the archive, midnight", decoded[1].FactValue)
}

func TestEncodeSFSLValue_LiteralPercentN(t *testing.T) {
	// A value that already contains "%n" must stay distinct from an escaped
	// newline through the round trip.
	assert.Equal(t, "a %n marker", DecodeSFSLValue(EncodeSFSLValue("a %n marker")))
	assert.Equal(t, "line one\nline two", DecodeSFSLValue(EncodeSFSLValue("line one\nline two")))
}

func TestEncodeFactBlock_SanitizesKeys(t *testing.T) {
	facts := []models.StoryFact{
		{FactType: models.FactTypeCharacter, FactKey: "Mira|the=brave", FactValue: "heroine"},
	}

	decoded, err := DecodeFactBlock(EncodeFactBlock(facts))

	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "Mira the brave", decoded[0].FactKey)
	assert.Equal(t, "heroine", decoded[0].FactValue)
}

func TestDecodeFactBlock_Empty(t *testing.T) {
	facts, err := DecodeFactBlock("")

	require.NoError(t, err)
	assert.Nil(t, facts)
}

func TestDecodeFactBlock_MalformedLine(t *testing.T) {
	_, err := DecodeFactBlock("character|Mira=fine\nnot a fact line")
	assert.Error(t, err)

	_, err = DecodeFactBlock("character|missing value separator")
	assert.Error(t, err)
}

func TestExtractFacts(t *testing.T) {
	foundation := &models.Foundation{
		Type:     models.ModeStory,
		Synopsis: "A cartographer maps a city that keeps changing.",
		Characters: []models.FoundationCharacter{
			{Name: "Mira", Role: "protagonist", Description: "a cartographer", Motivation: "find her sister"},
			{Name: "Voss", Role: "antagonist"},
		},
		Setting: models.FoundationSetting{Place: "the drowned city", Time: "1920s", Description: "canals over streets"},
		Themes:  []string{"memory", "cartography"},
	}

	facts := ExtractFacts(foundation)

	require.Len(t, facts, 5)
	assert.Equal(t, models.FactTypeCharacter, facts[0].FactType)
	assert.Equal(t, "Mira", facts[0].FactKey)
	assert.Equal(t, "protagonist: a cartographer (find her sister)", facts[0].FactValue)
	assert.Equal(t, "Voss", facts[1].FactKey)
	assert.Equal(t, "antagonist", facts[1].FactValue)
	assert.Equal(t, models.FactTypeLocation, facts[2].FactType)
	assert.Equal(t, "primary_setting", facts[2].FactKey)
	assert.Equal(t, "the drowned city, 1920s: canals over streets", facts[2].FactValue)
	assert.Equal(t, models.FactTypeTheme, facts[3].FactType)
	assert.Equal(t, "theme_1", facts[3].FactKey)
	assert.Equal(t, "memory", facts[3].FactValue)
	assert.Equal(t, "theme_2", facts[4].FactKey)
}

func TestExtractFacts_Nil(t *testing.T) {
	assert.Nil(t, ExtractFacts(nil))
}
