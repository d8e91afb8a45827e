package interfaces

import (
	"context"
	"time"

	"infinite-pages/internal/models"
)

// AIClient is the boundary to the hosted generation API.
type AIClient interface {
	// GenerateText produces a completion for the system prompt and user
	// input. Returns the generated text and usage accounting.
	GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams) (string, models.UsageInfo, error)

	// GenerateTextStream calls chunkHandler for each received fragment.
	// Usage may be estimated when the provider omits a final usage block.
	GenerateTextStream(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams, chunkHandler func(string) error) (models.UsageInfo, error)
}

// ResponseCache caches completions for non-personalized prompts.
type ResponseCache interface {
	Get(ctx context.Context, key string) (text string, usage models.UsageInfo, ok bool, err error)
	Set(ctx context.Context, key string, text string, usage models.UsageInfo, ttl time.Duration) error
}

// FactCache mirrors SFSL-encoded story facts for prompt assembly.
type FactCache interface {
	GetFacts(ctx context.Context, storyID string) (string, bool, error)
	SetFacts(ctx context.Context, storyID string, encoded string, ttl time.Duration) error
}
