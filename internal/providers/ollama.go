package providers

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Reviewer interface for Ollama and LM Studio through
// their OpenAI-compatible endpoint.
type Ollama struct {
	model   string
	baseURL string
	client  *openai.Client
}

// NewOllama creates a new Ollama provider. No API key is required by default.
func NewOllama(model string) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return newOllama(model, baseURL, os.Getenv("COREVIEW_OLLAMA_API_KEY")), nil
}

func newOllama(model, baseURL, apiKey string) *Ollama {
	baseURL = normalizeOllamaURL(baseURL)
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: 300 * time.Second}
	return &Ollama{model: model, baseURL: baseURL, client: openai.NewClientWithConfig(cfg)}
}

// normalizeOllamaURL accepts a bare host, a /v1 root or a full completions
// URL and returns the /v1 root.
func normalizeOllamaURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	u = strings.TrimSuffix(u, "/v1/chat/completions")
	u = strings.TrimSuffix(u, "/v1")
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	return u + "/v1"
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	chat := chatRequest(o.model, req)
	chat.MaxTokens = maxTokensOr(req.MaxTokens, 4096)
	return chatReview(ctx, o.client, chat)
}
