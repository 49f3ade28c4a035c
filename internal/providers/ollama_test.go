package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNormalizeOllamaURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"http://localhost:1234/v1", "http://localhost:1234/v1"},
		{"http://box:1234/v1/chat/completions", "http://box:1234/v1"},
		{"gpu-box:11434", "http://gpu-box:11434/v1"},
	}
	for _, tt := range tests {
		if got := normalizeOllamaURL(tt.in); got != tt.want {
			t.Errorf("normalizeOllamaURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOllama_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req openai.ChatCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "qwen2.5-coder" {
			t.Errorf("model = %q", req.Model)
		}
		if req.MaxTokens != 256 {
			t.Errorf("MaxTokens = %d, want 256", req.MaxTokens)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(completion("Rename x to count.", 7))
	}))
	defer server.Close()

	o := newOllama("qwen2.5-coder", server.URL, "")
	resp, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "x = 1", MaxTokens: 256})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "Rename x to count." {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestOllama_Unreachable(t *testing.T) {
	o := newOllama("llama3", "http://127.0.0.1:1", "")
	_, err := o.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if IsAuthError(err) {
		t.Errorf("connection failure reported as auth error: %v", err)
	}
}
