package models

// GenerationParams are optional sampling overrides for a single AI call.
// Pointers distinguish "not set" from zero values.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// UsageInfo reports token usage and estimated cost of one AI call.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD float64
}
