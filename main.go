// ABOUTME: This file wires the resolver, crawler, and optional collaborators and runs the crawl loop
// ABOUTME: The crawl job repeats on a ticker until the process receives an interrupt
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YevheniiM/google-news-scrapper-sub000/browser"
	"github.com/YevheniiM/google-news-scrapper-sub000/cache"
	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/driver"
	"github.com/YevheniiM/google-news-scrapper-sub000/feed"
	"github.com/YevheniiM/google-news-scrapper-sub000/logger"
	"github.com/YevheniiM/google-news-scrapper-sub000/proxy"
	"github.com/YevheniiM/google-news-scrapper-sub000/ratelimit"
	"github.com/YevheniiM/google-news-scrapper-sub000/resolver"
	"github.com/YevheniiM/google-news-scrapper-sub000/service"
)

func main() {
	log := logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolutionCache := cache.NewResolutionCache(cfg.Cache, log)

	limiter, err := ratelimit.NewIntervalLimiter(cfg.RateLimit.MinInterval, log)
	if err != nil {
		log.Error("Failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	var proxies proxy.Provider = proxy.NopProvider{}
	if len(cfg.Proxy.URLs) > 0 {
		proxies = proxy.NewRotatingProvider(cfg.Proxy, log)
	}

	env := resolver.DetectCostEnvironment()
	log.Info("Detected cost environment", "cloud", env.Cloud, "rpc_max_attempts", env.RPCMaxAttempts)

	orchestrator := resolver.NewOrchestrator(cfg, resolutionCache, limiter, proxies, env, log)
	defer orchestrator.Cleanup()

	var handle resolver.BrowserHandle
	if cfg.Browser.Enabled {
		chrome, err := browser.NewChromeHandle(ctx, log)
		if err != nil {
			// The browser is a last-resort strategy; run without it.
			log.Warn("Headless browser unavailable, continuing without it", "error", err)
		} else {
			handle = chrome
			defer chrome.Close()
		}
	}

	var repo service.ArticleRepository
	if cfg.Database.Enabled {
		pool, err := driver.Init(ctx, cfg.Database)
		if err != nil {
			log.Error("Failed to initialize database connection pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = driver.NewArticleRepository(pool)
	}

	crawler := service.NewCrawlerService(
		feed.NewFetcher(cfg.Feed, log),
		orchestrator,
		service.NewArticleFetcherService(cfg, log),
		repo,
		handle,
		cfg.Crawler,
		log,
	)

	runCrawl := func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Crawl job panicked", "panic", r)
			}
		}()

		result, err := crawler.RunOnce(ctx)
		if err != nil {
			log.Error("Crawl job failed", "error", err)
			return
		}
		log.Info("Crawl job completed",
			"processed", result.ProcessedCount,
			"resolved", result.ResolvedCount,
			"stored", result.StoredCount,
			"errors", result.ErrorCount)
	}

	log.Info("Starting crawl loop", "interval", cfg.Crawler.Interval)
	runCrawl()

	ticker := time.NewTicker(cfg.Crawler.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down")
			return
		case <-ticker.C:
			runCrawl()
		}
	}
}
