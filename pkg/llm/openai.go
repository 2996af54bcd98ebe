package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/config"
)

// OpenAIGenerator drafts code with any OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client    *openai.Client
	endpoint  string
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ CodeGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator for the openai provider.
// The API key is optional for local endpoints.
func NewOpenAIGenerator(cfg *config.GenerationConfig, logger *zap.Logger) (*OpenAIGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(clientConfig),
		endpoint:  clientConfig.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("llm.openai"),
	}, nil
}

// Generate sends the system and user messages and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
	}
	if req.System != "" {
		messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
		}, messages...)
	}

	g.logger.Debug("Generation request",
		zap.String("model", g.model),
		zap.Int("prompt_len", len(req.Prompt)))

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: maxTokens(req.MaxTokens, g.maxTokens),
	})
	if err != nil {
		g.logger.Error("Generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyProviderError(ctx, err, g.model, g.endpoint)
	}

	if len(resp.Choices) == 0 {
		return nil, NewErrorWithContext(ErrorTypeUnknown, "no choices in response", false, nil, g.model, g.endpoint, 0)
	}

	g.logger.Info("Generation request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResult{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

// Provider returns "openai".
func (g *OpenAIGenerator) Provider() string { return ProviderOpenAI }

// Model returns the configured model name.
func (g *OpenAIGenerator) Model() string { return g.model }
