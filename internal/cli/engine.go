package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dshills/coreview/internal/cache"
	"github.com/dshills/coreview/internal/config"
	"github.com/dshills/coreview/internal/metrics"
	"github.com/dshills/coreview/internal/orchestrator"
	"github.com/dshills/coreview/internal/providers"
	"github.com/dshills/coreview/internal/review"
	"go.uber.org/zap"
)

// buildEngine assembles the in-process review engine. The returned close
// function releases the cache.
func buildEngine(c config.Config, historyTurns int, m *metrics.Metrics) (*review.Engine, func(), error) {
	model := resolveModel(c)
	p, err := providers.New(c.Provider, model)
	if err != nil {
		return nil, nil, fail(ExitAuthError, err)
	}

	rules, err := review.LoadRules(c.RulesFile)
	if err != nil {
		return nil, nil, fail(ExitUsageError, fmt.Errorf("loading rules: %w", err))
	}

	rc, err := cache.New(c.Cache.Enabled, c.Cache.Dir, c.Cache.TTLSeconds, cache.WithLogger(logger.Named("cache")))
	if err != nil {
		// A locked or unreadable cache should not stop reviews.
		logger.Warn("review cache unavailable", zap.Error(err))
		rc, _ = cache.New(false, "", 0)
	}

	engine := review.NewEngine(p,
		review.WithModel(model),
		review.WithCache(rc),
		review.WithRules(rules),
		review.WithRedaction(c.Privacy.RedactSecrets),
		review.WithHistoryTurns(historyTurns),
		review.WithLogger(logger.Named("review")),
		review.WithMetrics(m),
	)
	logger.Debug("review engine ready", zap.String("provider", p.Name()), zap.String("model", model))
	return engine, func() { rc.Close() }, nil
}

// resolveModel picks the configured model, unless it is the default
// provider's default model and another provider was chosen.
func resolveModel(c config.Config) string {
	name := providers.Canonical(c.Provider)
	if c.Model == "" || (name != providers.DefaultProvider && c.Model == providers.DefaultModel(providers.DefaultProvider)) {
		return providers.DefaultModel(name)
	}
	return c.Model
}

// buildBackend returns a backend that reviews through serverURL, or the
// in-process engine when serverURL is empty.
func buildBackend(c config.Config, serverURL string) (orchestrator.Backend, func(), error) {
	if serverURL != "" {
		return orchestrator.NewHTTPBackend(serverURL, &http.Client{Timeout: 2 * time.Minute}), func() {}, nil
	}
	engine, closeFn, err := buildEngine(c, c.Client.HistoryTurns, nil)
	if err != nil {
		return nil, nil, err
	}
	return orchestrator.EngineBackend{Engine: engine}, closeFn, nil
}
