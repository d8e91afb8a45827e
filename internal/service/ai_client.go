package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"infinite-pages/internal/config"
	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrAIGenerationFailed wraps every provider-side failure.
var ErrAIGenerationFailed = errors.New("AI text generation failed")

// modelPricing is USD per one million tokens.
type modelPricing struct {
	inputPerMillion  float64
	outputPerMillion float64
}

// pricingTable keys are model id prefixes; first match wins.
var pricingTable = []struct {
	prefix  string
	pricing modelPricing
}{
	{"claude-opus", modelPricing{15.0, 75.0}},
	{"claude-sonnet", modelPricing{3.0, 15.0}},
	{"claude-haiku", modelPricing{0.8, 4.0}},
	{"claude-3-5", modelPricing{3.0, 15.0}},
}

var defaultPricing = modelPricing{3.0, 15.0}

func pricingForModel(model string) modelPricing {
	for _, entry := range pricingTable {
		if strings.HasPrefix(model, entry.prefix) {
			return entry.pricing
		}
	}
	return defaultPricing
}

// calculateCost estimates the USD cost of a call from its token counts.
func calculateCost(model string, promptTokens, completionTokens int) float64 {
	p := pricingForModel(model)
	inputCost := float64(promptTokens) * p.inputPerMillion / 1_000_000.0
	outputCost := float64(completionTokens) * p.outputPerMillion / 1_000_000.0
	return inputCost + outputCost
}

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infinite_pages_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "infinite_pages_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "infinite_pages_ai_total_tokens",
			Help:    "Histogram of total token counts (prompt + completion).",
			Buckets: prometheus.LinearBuckets(500, 500, 20),
		},
		[]string{"model"},
	)
	aiEstimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "infinite_pages_ai_estimated_cost_usd_total",
			Help: "Estimated total cost of AI requests in USD.",
		},
		[]string{"model"},
	)
)

func observeSuccess(model string, duration time.Duration, usage models.UsageInfo) {
	aiRequestsTotal.WithLabelValues(model, "success").Inc()
	aiRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	if usage.TotalTokens > 0 {
		aiTotalTokens.WithLabelValues(model).Observe(float64(usage.TotalTokens))
	}
	if usage.EstimatedCostUSD > 0 {
		aiEstimatedCostUSD.WithLabelValues(model).Add(usage.EstimatedCostUSD)
	}
}

// --- OpenAI-compatible client ---

// openAIClient talks to any OpenAI-compatible chat completion endpoint; the
// default configuration points it at the hosted Claude compatibility URL.
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

// Compile-time check to ensure openAIClient implements AIClient
var _ interfaces.AIClient = (*openAIClient)(nil)

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams) (string, models.UsageInfo, error) {
	usageInfo := models.UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	startTime := time.Now()
	c.logger.Debug("Sending AI request",
		zap.String("model", c.model),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("userInputBytes", len(userInput)),
		zap.String("userID", userID),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})

	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("AI request failed", zap.Error(err), zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Warn("AI returned empty response", zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usageInfo, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	generatedText := resp.Choices[0].Message.Content

	if resp.Usage.TotalTokens > 0 {
		usageInfo.PromptTokens = resp.Usage.PromptTokens
		usageInfo.CompletionTokens = resp.Usage.CompletionTokens
		usageInfo.TotalTokens = resp.Usage.TotalTokens
	} else {
		// Providers occasionally omit the usage block; estimate locally so
		// billing never sees zeros.
		usageInfo.PromptTokens = PromptTokens(systemPrompt, userInput)
		usageInfo.CompletionTokens = PromptTokens(generatedText)
		usageInfo.TotalTokens = usageInfo.PromptTokens + usageInfo.CompletionTokens
	}
	usageInfo.EstimatedCostUSD = calculateCost(c.model, usageInfo.PromptTokens, usageInfo.CompletionTokens)

	observeSuccess(c.model, duration, usageInfo)
	c.logger.Debug("AI request completed",
		zap.Duration("duration", duration),
		zap.Int("totalTokens", usageInfo.TotalTokens),
		zap.Float64("estimatedCostUSD", usageInfo.EstimatedCostUSD),
		zap.String("userID", userID),
	)

	return generatedText, usageInfo, nil
}

func (c *openAIClient) GenerateTextStream(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams, chunkHandler func(string) error) (models.UsageInfo, error) {
	usageInfo := models.UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		return usageInfo, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Stream:      true,
		Temperature: float32Val(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	})
	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "error_stream_init").Inc()
		return usageInfo, fmt.Errorf("%w: stream init: %v", ErrAIGenerationFailed, err)
	}
	defer stream.Close()

	startTime := time.Now()
	var finalUsage openaigo.Usage
	var responseText strings.Builder

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			aiRequestsTotal.WithLabelValues(c.model, "error_stream_read").Inc()
			return usageInfo, fmt.Errorf("%w: stream read: %v", ErrAIGenerationFailed, err)
		}

		if response.Usage != nil && response.Usage.TotalTokens > 0 {
			finalUsage = *response.Usage
		}

		if len(response.Choices) > 0 {
			chunk := response.Choices[0].Delta.Content
			responseText.WriteString(chunk)
			if chunkHandler != nil && chunk != "" {
				if err := chunkHandler(chunk); err != nil {
					// The downstream consumer went away; the provider call
					// still completes and still bills.
					c.logger.Warn("Stream chunk handler failed", zap.Error(err), zap.String("userID", userID))
				}
			}
		}
	}

	duration := time.Since(startTime)

	if finalUsage.TotalTokens > 0 {
		usageInfo.PromptTokens = finalUsage.PromptTokens
		usageInfo.CompletionTokens = finalUsage.CompletionTokens
		usageInfo.TotalTokens = finalUsage.TotalTokens
	} else {
		usageInfo.PromptTokens = PromptTokens(systemPrompt, userInput)
		usageInfo.CompletionTokens = PromptTokens(responseText.String())
		usageInfo.TotalTokens = usageInfo.PromptTokens + usageInfo.CompletionTokens
	}
	usageInfo.EstimatedCostUSD = calculateCost(c.model, usageInfo.PromptTokens, usageInfo.CompletionTokens)

	observeSuccess(c.model, duration, usageInfo)
	return usageInfo, nil
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 1.0
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// --- Ollama client (local development) ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Compile-time check to ensure ollamaClient implements AIClient
var _ interfaces.AIClient = (*ollamaClient)(nil)

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (interfaces.AIClient, error) {
	httpClient := &http.Client{Timeout: cfg.AITimeout}

	// api.NewClient wants the URL without the /v1 suffix.
	ollamaBaseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL %q: %w", ollamaBaseURL, err)
	}

	logger.Info("Ollama client created",
		zap.String("baseURL", ollamaBaseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout),
	)
	return &ollamaClient{
		client:  api.NewClient(parsedURL, httpClient),
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger.Named("OllamaClient"),
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams) (string, models.UsageInfo, error) {
	usageInfo := models.UsageInfo{}

	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("Ollama request failed", zap.Error(err), zap.Duration("duration", duration), zap.String("userID", userID))
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usageInfo, fmt.Errorf("%w: empty response", ErrAIGenerationFailed)
	}

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	// Local models cost nothing.
	usageInfo.EstimatedCostUSD = 0

	observeSuccess(c.model, duration, usageInfo)
	return resp.Message.Content, usageInfo, nil
}

func (c *ollamaClient) GenerateTextStream(ctx context.Context, userID string, systemPrompt string, userInput string, params models.GenerationParams, chunkHandler func(string) error) (models.UsageInfo, error) {
	usageInfo := models.UsageInfo{}
	if strings.TrimSpace(systemPrompt) == "" {
		return usageInfo, fmt.Errorf("%w: empty system prompt", ErrAIGenerationFailed)
	}

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	stream := true
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": params.Temperature,
			"top_p":       params.TopP,
			"num_predict": intVal(params.MaxTokens),
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var promptTokens, completionTokens int

	err := c.client.Chat(requestCtx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content != "" && chunkHandler != nil {
			if err := chunkHandler(resp.Message.Content); err != nil {
				return fmt.Errorf("stream handler failed: %w", err)
			}
		}
		if resp.Done {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount
		}
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "error_stream").Inc()
		return usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	usageInfo.PromptTokens = promptTokens
	usageInfo.CompletionTokens = completionTokens
	usageInfo.TotalTokens = promptTokens + completionTokens
	usageInfo.EstimatedCostUSD = 0

	observeSuccess(c.model, duration, usageInfo)
	return usageInfo, nil
}

// --- Factory ---

// NewAIClient selects the provider implementation from configuration.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (interfaces.AIClient, error) {
	switch strings.ToLower(cfg.AIClientType) {
	case "openai":
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		openaiConfig.BaseURL = cfg.AIBaseURL
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		client := openaigo.NewClientWithConfig(openaiConfig)
		logger.Info("OpenAI-compatible AI client created",
			zap.String("baseURL", cfg.AIBaseURL),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return &openAIClient{
			client: client,
			model:  cfg.AIModel,
			logger: logger.Named("AIClient"),
		}, nil
	case "ollama":
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown AI client type: %q", cfg.AIClientType)
	}
}
