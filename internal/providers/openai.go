package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI implements the Reviewer interface for OpenAI's chat completions API.
type OpenAI struct {
	model  string
	client *openai.Client
}

// NewOpenAI creates a new OpenAI provider. COREVIEW_OPENAI_BASE_URL points it
// at a compatible gateway.
func NewOpenAI(model string) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	cfg := openai.DefaultConfig(key)
	if base := os.Getenv("COREVIEW_OPENAI_BASE_URL"); base != "" {
		cfg.BaseURL = strings.TrimRight(base, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	return &OpenAI{model: model, client: openai.NewClientWithConfig(cfg)}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	chat := chatRequest(o.model, req)
	chat.MaxCompletionTokens = maxTokensOr(req.MaxTokens, 4096)
	return chatReview(ctx, o.client, chat)
}

func chatRequest(model string, req ReviewRequest) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		Temperature: float32(req.Temperature),
	}
}

// chatReview runs one chat completion with retries. Shared by every
// OpenAI-compatible backend.
func chatReview(ctx context.Context, client *openai.Client, chat openai.ChatCompletionRequest) (ReviewResponse, error) {
	var resp ReviewResponse
	err := retryWithBackoff(ctx, maxRetries, func() error {
		out, err := client.CreateChatCompletion(ctx, chat)
		if err != nil {
			return mapOpenAIError(err)
		}
		if len(out.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}
		resp = ReviewResponse{
			Content:    out.Choices[0].Message.Content,
			TokensUsed: out.Usage.TotalTokens,
		}
		return nil
	})
	return resp, err
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return fmt.Errorf("sending request: %w", err)
}
