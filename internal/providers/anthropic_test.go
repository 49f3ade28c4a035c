package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestAnthropic(t *testing.T, h http.HandlerFunc) *Anthropic {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return &Anthropic{
		apiKey:   "test-key",
		model:    "claude-haiku-4-5",
		endpoint: server.URL + "/v1/messages",
		client:   server.Client(),
	}
}

func TestAnthropic_Review(t *testing.T) {
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing API key header")
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Error("Missing anthropic-version header")
		}
		var body anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.System != "be terse" {
			t.Errorf("System = %q, want %q", body.System, "be terse")
		}
		if body.MaxTokens != 4096 {
			t.Errorf("MaxTokens = %d, want default 4096", body.MaxTokens)
		}

		resp := anthropicResponse{
			Content: []anthropicBlock{
				{Type: "text", Text: "Looks "},
				{Type: "tool_use"},
				{Type: "text", Text: "good."},
			},
			Usage: anthropicUsage{InputTokens: 100, OutputTokens: 10},
		}
		json.NewEncoder(w).Encode(resp)
	})

	resp, err := a.Review(context.Background(), ReviewRequest{
		SystemPrompt: "be terse",
		UserPrompt:   "func main() {}",
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "Looks good." {
		t.Errorf("Content = %q, want %q", resp.Content, "Looks good.")
	}
	if resp.TokensUsed != 110 {
		t.Errorf("TokensUsed = %d, want 110", resp.TokensUsed)
	}
}

func TestAnthropic_AuthError(t *testing.T) {
	var calls atomic.Int32
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(401)
		w.Write([]byte(`{"error":"unauthorized"}`))
	})

	_, err := a.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if err == nil {
		t.Fatal("Expected auth error")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, auth errors must not be retried", calls.Load())
	}
}

func TestAnthropic_ServerErrorRetried(t *testing.T) {
	shortBackoff(t)
	var calls atomic.Int32
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(500)
			w.Write([]byte(`{"error":"internal server error"}`))
			return
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicBlock{{Type: "text", Text: "ok"}},
		})
	})

	resp, err := a.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want %q", resp.Content, "ok")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestAnthropic_BadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	a := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(400)
		w.Write([]byte(`{"error":"bad model"}`))
	})

	_, err := a.Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if IsAuthError(err) || IsRateLimited(err) {
		t.Errorf("400 misclassified: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// shortBackoff shrinks the retry delay for the duration of the test.
func shortBackoff(t *testing.T) {
	t.Helper()
	old := backoffUnit
	backoffUnit = time.Millisecond
	t.Cleanup(func() { backoffUnit = old })
}
