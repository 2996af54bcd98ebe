package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/config"
)

// AnthropicGenerator drafts code with the Anthropic Messages API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ CodeGenerator = (*AnthropicGenerator)(nil)

// NewAnthropicGenerator creates a generator for the Anthropic provider.
// A non-empty cfg.Endpoint overrides the API base URL.
func NewAnthropicGenerator(cfg *config.GenerationConfig, logger *zap.Logger) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required for the anthropic provider")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	return &AnthropicGenerator{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("llm.anthropic"),
	}, nil
}

// Generate sends one user message and returns the concatenated text blocks.
func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	prompt := req.Prompt
	start := time.Now()

	g.logger.Debug("Generation request",
		zap.String("model", g.model),
		zap.Int("prompt_len", len(prompt)))

	resp, err := g.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(g.model),
		System:    req.System,
		MaxTokens: maxTokens(req.MaxTokens, g.maxTokens),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					{Type: "text", Text: &prompt},
				},
			},
		},
	})
	if err != nil {
		g.logger.Error("Generation request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, classifyProviderError(ctx, err, g.model, "")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, NewErrorWithContext(ErrorTypeUnknown, "empty response", false, nil, g.model, "", 0)
	}

	g.logger.Info("Generation request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResult{
		Content:      sb.String(),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// Provider returns "anthropic".
func (g *AnthropicGenerator) Provider() string { return ProviderAnthropic }

// Model returns the configured model name.
func (g *AnthropicGenerator) Model() string { return g.model }
