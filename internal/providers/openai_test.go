package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAI(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return &OpenAI{model: "gpt-4.1-mini", client: openai.NewClientWithConfig(cfg)}
}

func completion(content string, tokens int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
		}},
		Usage: openai.Usage{TotalTokens: tokens},
	}
}

func TestOpenAI_Review(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxCompletionTokens != 4096 {
			t.Errorf("MaxCompletionTokens = %d, want 4096", req.MaxCompletionTokens)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion("Use a map here.", 42))
	})

	resp, err := o.Review(context.Background(), ReviewRequest{SystemPrompt: "sys", UserPrompt: "code"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "Use a map here." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("TokensUsed = %d, want 42", resp.TokensUsed)
	}
}

func TestOpenAI_AuthError(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(401)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	})

	_, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestOpenAI_RateLimitRetried(t *testing.T) {
	shortBackoff(t)
	var calls atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(429)
			w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		json.NewEncoder(w).Encode(completion("ok", 1))
	})

	resp, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "ok" || calls.Load() != 2 {
		t.Errorf("Content = %q after %d calls", resp.Content, calls.Load())
	}
}

func TestOpenAI_NoChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	})
	if _, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "x"}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestNewOpenAI_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewOpenAI("gpt-4.1-mini"); err == nil {
		t.Error("expected error without OPENAI_API_KEY")
	}
}
