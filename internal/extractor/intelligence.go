package extractor

import (
	"context"
	"fmt"
	"strings"

	"meeting-insights-go/internal/config"
)

// CompletionOptions tunes a single completion call.
type CompletionOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

// TextIntelligence is a language model that turns a prompt into text.
type TextIntelligence interface {
	Name() string
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// NewBackend builds the text-intelligence backend named by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.LLMConfig) (TextIntelligence, error) {
	switch strings.ToLower(cfg.Provider) {
	case "mock":
		return NewMock(), nil
	case "gemini":
		return NewGemini(ctx, cfg)
	case "groq", "openai", "":
		if cfg.Provider == "groq" && cfg.BaseURL == "" {
			cfg.BaseURL = GroqBaseURL
		}
		return NewOpenAI(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
