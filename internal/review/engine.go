package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/coreview/internal/cache"
	"github.com/dshills/coreview/internal/metrics"
	"github.com/dshills/coreview/internal/providers"
	"github.com/dshills/coreview/internal/redact"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Feedback strings returned to clients in place of a model answer.
const (
	NoCodeFeedback        = "No code provided."
	ProviderErrorFeedback = "Error connecting to AI provider"
)

var (
	// ErrNoCode is returned for empty or whitespace-only code.
	ErrNoCode = errors.New("no code provided")
	// ErrInvalidRequest wraps validation failures.
	ErrInvalidRequest = errors.New("invalid review request")
)

// DefaultHistoryTurns is how many earlier exchanges reach the prompt.
const DefaultHistoryTurns = 3

// Engine turns review requests into model feedback.
type Engine struct {
	provider     providers.Reviewer
	model        string
	cache        *cache.Cache
	rules        *Rules
	redact       bool
	historyTurns int
	maxTokens    int
	temperature  float64
	logger       *zap.Logger
	metrics      *metrics.Metrics
	validate     *validator.Validate
}

// Option configures an Engine.
type Option func(*Engine)

// WithModel records the model name used for cache keys and logs.
func WithModel(model string) Option { return func(e *Engine) { e.model = model } }

// WithCache enables the response cache.
func WithCache(c *cache.Cache) Option { return func(e *Engine) { e.cache = c } }

// WithRules adds a rules pack to every applicable prompt.
func WithRules(r *Rules) Option { return func(e *Engine) { e.rules = r } }

// WithRedaction toggles secret redaction before code is sent.
func WithRedaction(on bool) Option { return func(e *Engine) { e.redact = on } }

// WithHistoryTurns caps the earlier exchanges included in a prompt.
func WithHistoryTurns(n int) Option { return func(e *Engine) { e.historyTurns = n } }

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option { return func(e *Engine) { e.maxTokens = n } }

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option { return func(e *Engine) { e.temperature = t } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// NewEngine creates an Engine around a provider.
func NewEngine(provider providers.Reviewer, opts ...Option) *Engine {
	e := &Engine{
		provider:     provider,
		redact:       true,
		historyTurns: DefaultHistoryTurns,
		maxTokens:    4096,
		temperature:  0.2,
		logger:       zap.NewNop(),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Provider returns the provider name.
func (e *Engine) Provider() string { return e.provider.Name() }

// Run reviews one request. Callers map ErrNoCode and ErrInvalidRequest to
// client errors and anything else to ProviderErrorFeedback.
func (e *Engine) Run(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Code) == "" {
		e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeEmpty)
		return Response{Feedback: NoCodeFeedback}, ErrNoCode
	}
	if req.Mode == "" {
		req.Mode = ModeReview
	}
	if err := e.validate.Struct(req); err != nil {
		e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeInvalid)
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	if e.redact {
		req = e.redactRequest(req)
	}

	var rules *Rules
	if e.rules.AppliesTo(req.Language) {
		rules = e.rules
	}
	system := SystemPrompt(req.Mode)
	user := BuildUserPrompt(req, rules, e.historyTurns)

	key := cache.BuildCacheKey(e.provider.Name(), e.model, system+"\x00"+user)
	if e.cache != nil && e.cache.Enabled() {
		feedback, hit := e.cache.Get(key)
		e.metrics.CacheLookup(hit)
		if hit {
			e.logger.Debug("review cache hit", zap.String("mode", string(req.Mode)))
			e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeCached)
			return Response{Feedback: feedback, Cached: true}, nil
		}
	}

	start := time.Now()
	resp, err := e.provider.Review(ctx, providers.ReviewRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    e.maxTokens,
		Temperature:  e.temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		e.logger.Error("provider review failed",
			zap.String("provider", e.provider.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeError)
		return Response{Feedback: ProviderErrorFeedback}, fmt.Errorf("provider review: %w", err)
	}
	e.metrics.ObserveProvider(e.provider.Name(), elapsed, resp.TokensUsed)

	feedback := strings.TrimSpace(resp.Content)
	if feedback == "" {
		e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeError)
		return Response{Feedback: ProviderErrorFeedback}, fmt.Errorf("provider review: empty response")
	}

	if e.cache != nil && e.cache.Enabled() {
		if err := e.cache.Put(key, feedback); err != nil {
			e.logger.Warn("writing review cache", zap.Error(err))
		}
	}

	e.logger.Info("review complete",
		zap.String("mode", string(req.Mode)),
		zap.String("language", string(req.Language)),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("elapsed", elapsed))
	e.metrics.ObserveReview(string(req.Mode), metrics.OutcomeOK)
	return Response{Feedback: feedback}, nil
}

func (e *Engine) redactRequest(req Request) Request {
	total := 0
	code, n := redact.Secrets(req.Code)
	req.Code = code
	total += n
	if len(req.History) > 0 {
		history := make([]Exchange, len(req.History))
		for i, ex := range req.History {
			ex.Code, n = redact.Secrets(ex.Code)
			total += n
			history[i] = ex
		}
		req.History = history
	}
	if total > 0 {
		e.logger.Info("redacted secrets before review", zap.Int("count", total))
		e.metrics.SecretsRedacted(total)
	}
	return req
}
