// Package llm drafts A/B-test snippets through an upstream model provider.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/safecode-engine/pkg/config"
)

// Provider names accepted in config.GenerationConfig.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 4096

// GenerateRequest is one drafting call.
type GenerateRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// GenerateResult is the raw model output and its token usage.
type GenerateResult struct {
	Content      string
	InputTokens  int
	OutputTokens int
}

// CodeGenerator drafts code from a prompt. Implementations return *Error for
// provider failures so the retry package can tell transient ones apart.
type CodeGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Provider() string
	Model() string
}

// NewCodeGenerator builds the generator named by cfg.Provider.
// Returns nil, nil when generation is not configured.
func NewCodeGenerator(cfg *config.GenerationConfig, logger *zap.Logger) (CodeGenerator, error) {
	if cfg == nil || !cfg.IsEnabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicGenerator(cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIGenerator(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

func maxTokens(requested, configured int) int {
	if requested > 0 {
		return requested
	}
	if configured > 0 {
		return configured
	}
	return DefaultMaxTokens
}
