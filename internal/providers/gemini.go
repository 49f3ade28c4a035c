package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"
)

// Gemini implements the Reviewer interface for Google's Gemini API.
type Gemini struct {
	model  string
	client *genai.Client
}

// NewGemini creates a new Gemini provider. GEMINI_BASE_URL overrides the
// API endpoint.
func NewGemini(model string) (*Gemini, error) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable is not set")
	}
	return newGemini(context.Background(), model, key, os.Getenv("GEMINI_BASE_URL"))
}

func newGemini(ctx context.Context, model, key, baseURL string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      key,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: 120 * time.Second},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{model: model, client: client}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(maxTokensOr(req.MaxTokens, 4096)),
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}

	var resp ReviewResponse
	err := retryWithBackoff(ctx, maxRetries, func() error {
		out, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.UserPrompt), cfg)
		if err != nil {
			return mapGeminiError(err)
		}
		text := out.Text()
		if text == "" {
			return fmt.Errorf("no candidates in response")
		}
		resp = ReviewResponse{Content: text}
		if out.UsageMetadata != nil {
			resp.TokensUsed = int(out.UsageMetadata.TotalTokenCount)
		}
		return nil
	})
	return resp, err
}

func mapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(apiErrPtr.Code, apiErrPtr.Message)
	}
	return fmt.Errorf("sending request: %w", err)
}
