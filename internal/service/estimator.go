package service

import (
	"math"

	"infinite-pages/internal/models"

	"github.com/pkoukk/tiktoken-go"
)

// Requested generation lengths.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// defaultCredits applies when a mode/length pair is missing from the table.
const defaultCredits = 10

// creditTable maps (mode, length) to an estimated cost in credits. Values
// track average completion sizes per mode; the actual charge after a call
// uses real token usage.
var creditTable = map[string]map[string]int{
	models.ModeStory: {
		LengthShort:  5,
		LengthMedium: 10,
		LengthLong:   18,
	},
	models.ModeNovel: {
		LengthShort:  15,
		LengthMedium: 25,
		LengthLong:   40,
	},
	models.ModeChoiceBook: {
		LengthShort:  12,
		LengthMedium: 20,
		LengthLong:   32,
	},
	models.ModeAIBuilder: {
		LengthShort:  8,
		LengthMedium: 14,
		LengthLong:   24,
	},
}

// creditsPerThousandTokens converts real token usage into the charge unit.
const creditsPerThousandTokens = 2

// Estimate returns the up-front credit cost for a mode/length pair from the
// static table. Unrecognized modes or lengths fall back to defaults.
func Estimate(mode, length string) int {
	lengths, ok := creditTable[mode]
	if !ok {
		return defaultCredits
	}
	if length == "" {
		length = LengthMedium
	}
	credits, ok := lengths[length]
	if !ok {
		return defaultCredits
	}
	return credits
}

// CreditsForUsage converts actual token usage into the charge, rounding up
// so fractional thousands are not given away. Minimum charge is 1 credit.
func CreditsForUsage(usage models.UsageInfo) int {
	if usage.TotalTokens <= 0 {
		return 1
	}
	credits := int(math.Ceil(float64(usage.TotalTokens) / 1000.0 * creditsPerThousandTokens))
	if credits < 1 {
		credits = 1
	}
	return credits
}

// PromptTokens counts tokens in the given texts with the cl100k_base
// encoding. Used when a provider response omits a usage block. Returns 0 if
// the tokenizer cannot be loaded.
func PromptTokens(texts ...string) int {
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	total := 0
	for _, text := range texts {
		total += len(tke.Encode(text, nil, nil))
	}
	return total
}
