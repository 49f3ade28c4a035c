package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dshills/coreview/internal/review"
)

// Backend produces feedback for a review request.
type Backend interface {
	Review(ctx context.Context, req review.Request) (review.Response, error)
}

// EngineBackend runs reviews in process.
type EngineBackend struct {
	Engine *review.Engine
}

func (b EngineBackend) Review(ctx context.Context, req review.Request) (review.Response, error) {
	return b.Engine.Run(ctx, req)
}

// HTTPBackend posts reviews to a coreview server.
type HTTPBackend struct {
	endpoint string
	client   *http.Client
}

// NewHTTPBackend creates a backend for the server at serverURL. A nil client
// uses http.DefaultClient.
func NewHTTPBackend(serverURL string, client *http.Client) *HTTPBackend {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		endpoint: strings.TrimRight(serverURL, "/") + "/review",
		client:   client,
	}
}

// Review sends req. Any transport error or non-2xx status is an error.
func (b *HTTPBackend) Review(ctx context.Context, req review.Request) (review.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return review.Response{}, fmt.Errorf("marshaling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(payload))
	if err != nil {
		return review.Response{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.client.Do(httpReq)
	if err != nil {
		return review.Response{}, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 8<<20))
	if err != nil {
		return review.Response{}, fmt.Errorf("reading response: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return review.Response{}, fmt.Errorf("server error (status %d): %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp review.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return review.Response{}, fmt.Errorf("parsing response: %w", err)
	}
	return resp, nil
}
