package providers

import (
	"context"
	"fmt"
	"strings"
)

// DefaultProvider is used when no provider is configured.
const DefaultProvider = "gemini"

// ReviewRequest contains the data sent to an LLM for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction interface.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

var defaultModels = map[string]string{
	"anthropic": "claude-haiku-4-5",
	"openai":    "gpt-4.1-mini",
	"gemini":    "gemini-2.5-flash-lite",
	"ollama":    "qwen2.5-coder",
}

// Canonical maps provider aliases to the name used in config and logs.
func Canonical(provider string) string {
	switch p := strings.ToLower(strings.TrimSpace(provider)); p {
	case "google":
		return "gemini"
	case "lmstudio":
		return "ollama"
	case "claude":
		return "anthropic"
	default:
		return p
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[Canonical(provider)]
}

// New creates a provider by name. An empty model selects the provider default.
func New(provider, model string) (Reviewer, error) {
	name := Canonical(provider)
	if model == "" {
		model = DefaultModel(name)
	}
	switch name {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	case "gemini":
		return NewGemini(model)
	case "ollama":
		return NewOllama(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func maxTokensOr(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}
