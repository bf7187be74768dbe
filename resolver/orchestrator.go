// ABOUTME: This file implements the public resolution entry point over the strategy chain
// ABOUTME: Cache check, rate limiting, environment-ordered strategies, always returns a string
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"github.com/YevheniiM/google-news-scrapper-sub000/cache"
	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/proxy"
	"github.com/YevheniiM/google-news-scrapper-sub000/ratelimit"
)

// Orchestrator owns the cache, the rate limiter, and the strategy chain.
// Construct one per process or per crawler session and share it explicitly.
type Orchestrator struct {
	cache      *cache.ResolutionCache
	limiter    *ratelimit.IntervalLimiter
	proxies    proxy.Provider
	env        CostEnvironment
	rpc        *RPCResolver
	legacy     *LegacyDecoder
	heuristic  *HeuristicExtractor
	browserCfg config.BrowserConfig
	logger     *slog.Logger
}

func NewOrchestrator(
	cfg *config.Config,
	resolutionCache *cache.ResolutionCache,
	limiter *ratelimit.IntervalLimiter,
	proxies proxy.Provider,
	env CostEnvironment,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cache:      resolutionCache,
		limiter:    limiter,
		proxies:    proxies,
		env:        env,
		rpc:        NewRPCResolver(cfg, env, proxies, logger),
		legacy:     NewLegacyDecoder(logger),
		heuristic:  NewHeuristicExtractor(logger),
		browserCfg: cfg.Browser,
		logger:     logger,
	}
}

// ResolveURL turns an aggregator link into the underlying publisher URL. The
// contract is total: for any input it returns a string and never panics; on
// failure the input comes back unchanged so the caller can proceed with the
// aggregator link. A nil handle simply skips the browser strategy.
func (o *Orchestrator) ResolveURL(ctx context.Context, rawURL string, handle BrowserHandle) (result string) {
	result = rawURL
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("resolution recovered from panic", "url", rawURL, "panic", r)
			result = rawURL
		}
	}()

	if !strings.Contains(rawURL, aggregatorDomain) {
		return rawURL
	}

	if resolved, ok := o.cache.Get(rawURL); ok {
		o.logger.Debug("resolution cache hit", "url", rawURL)
		return resolved
	}

	if err := o.limiter.Wait(ctx); err != nil {
		o.logger.Warn("rate limit wait aborted", "url", rawURL, "error", err)
		return rawURL
	}

	rc := &ResolutionContext{
		Identifier: articleIDFromURL(rawURL),
		SourceURL:  rawURL,
		Proxies:    o.proxies,
	}

	for _, strategy := range o.strategyChain(handle) {
		rc.Tried = append(rc.Tried, strategy.Name())

		candidate, err := strategy.Attempt(ctx, rc)
		if err != nil {
			o.logger.Debug("strategy failed", "strategy", strategy.Name(), "url", rawURL, "error", err)
			continue
		}
		if !isValidCandidate(candidate) {
			continue
		}

		o.cache.Set(rawURL, candidate)
		o.logger.Info("resolved aggregator link",
			"strategy", strategy.Name(), "url", rawURL, "resolved", candidate)
		return candidate
	}

	o.logger.Info("link left unresolved", "url", rawURL, "strategies", rc.Tried)
	return rawURL
}

// strategyChain orders the strategies for this environment. On metered cloud
// infrastructure the free heuristic pass goes first; locally it runs after
// the RPC attempts. The browser is always last and only when a handle was
// supplied.
func (o *Orchestrator) strategyChain(handle BrowserHandle) []Strategy {
	var chain []Strategy
	if o.env.Cloud {
		chain = append(chain, o.heuristic, o.rpc, o.rpc.WithFreshProxy(), o.legacy)
	} else {
		chain = append(chain, o.rpc, o.rpc.WithFreshProxy(), o.heuristic, o.legacy)
	}
	if handle != nil {
		chain = append(chain, NewBrowserResolver(handle, o.browserCfg, o.logger))
	}
	return chain
}

// Cleanup flushes the cache to disk and stops its persistence timer. Must be
// called before process exit.
func (o *Orchestrator) Cleanup() {
	o.cache.Cleanup()
}
