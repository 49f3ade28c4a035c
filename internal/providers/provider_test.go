package providers

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("unknown", "model")
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_GoogleAlias(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err := New("google", "")
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if strings.Contains(err.Error(), "unknown provider") {
		t.Error("'google' should be a valid provider alias for gemini")
	}
}

func TestNew_OllamaNeedsNoKey(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "localhost:1234")
	p, err := New("lmstudio", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("Name() = %q, want %q", p.Name(), "ollama")
	}
	o := p.(*Ollama)
	if o.model != DefaultModel("ollama") {
		t.Errorf("model = %q, want default %q", o.model, DefaultModel("ollama"))
	}
	if o.baseURL != "http://localhost:1234/v1" {
		t.Errorf("baseURL = %q", o.baseURL)
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"google":    "gemini",
		"Gemini":    "gemini",
		"lmstudio":  "ollama",
		" claude ":  "anthropic",
		"openai":    "openai",
		"something": "something",
	}
	for in, want := range tests {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultModel(t *testing.T) {
	if got := DefaultModel(DefaultProvider); got != "gemini-2.5-flash-lite" {
		t.Errorf("DefaultModel(%q) = %q", DefaultProvider, got)
	}
	if got := DefaultModel("nope"); got != "" {
		t.Errorf("DefaultModel(nope) = %q, want empty", got)
	}
}

func TestClassifyStatus(t *testing.T) {
	if !IsRateLimited(classifyStatus(429, "")) {
		t.Error("429 should be a rate limit")
	}
	if !IsAuthError(classifyStatus(403, "denied")) {
		t.Error("403 should be an auth error")
	}
	var se *serverError
	if !errors.As(classifyStatus(503, "down"), &se) || se.status != 503 {
		t.Error("503 should be a server error")
	}
	err := classifyStatus(404, "missing")
	if IsAuthError(err) || IsRateLimited(err) || errors.As(err, &se) {
		t.Errorf("404 misclassified: %v", err)
	}
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	shortBackoff(t)
	calls := 0
	err := retryWithBackoff(context.Background(), 2, func() error {
		calls++
		return &rateLimitError{retryable: true}
	})
	if !IsRateLimited(err) {
		t.Errorf("err = %v, want rate limit", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryWithBackoff(ctx, 3, func() error {
		calls++
		cancel()
		return &serverError{status: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
