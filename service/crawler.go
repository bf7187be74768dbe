// ABOUTME: This file runs one crawl pass: feed items through resolution, fetch, and storage
// ABOUTME: A failed resolution degrades to crawling the aggregator link directly
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/models"
	"github.com/YevheniiM/google-news-scrapper-sub000/resolver"
)

// CrawlerService drives the feed → resolve → fetch → store pipeline. The
// repository and browser handle are optional; a nil repository means fetched
// articles are only logged, a nil handle skips the browser strategy.
type CrawlerService struct {
	feeds    FeedFetcher
	resolver URLResolver
	fetcher  ArticleFetcherService
	repo     ArticleRepository
	browser  resolver.BrowserHandle
	cfg      config.CrawlerConfig
	logger   *slog.Logger
}

func NewCrawlerService(
	feeds FeedFetcher,
	urlResolver URLResolver,
	fetcher ArticleFetcherService,
	repo ArticleRepository,
	browser resolver.BrowserHandle,
	cfg config.CrawlerConfig,
	logger *slog.Logger,
) *CrawlerService {
	return &CrawlerService{
		feeds:    feeds,
		resolver: urlResolver,
		fetcher:  fetcher,
		repo:     repo,
		browser:  browser,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunOnce processes a single batch of feed items. Per-item failures are
// collected, not fatal; only a feed fetch failure aborts the pass.
func (s *CrawlerService) RunOnce(ctx context.Context) (*CrawlResult, error) {
	items, err := s.feeds.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl pass aborted: %w", err)
	}

	if s.cfg.BatchSize > 0 && len(items) > s.cfg.BatchSize {
		items = items[:s.cfg.BatchSize]
	}

	result := &CrawlResult{}
	for i, item := range items {
		if ctx.Err() != nil {
			s.logger.Warn("crawl pass interrupted", "processed", result.ProcessedCount)
			break
		}
		if i > 0 {
			if err := s.sleepBetweenItems(ctx); err != nil {
				break
			}
		}

		result.ProcessedCount++
		s.processItem(ctx, item, result)
	}

	s.logger.Info("crawl pass finished",
		"processed", result.ProcessedCount,
		"resolved", result.ResolvedCount,
		"stored", result.StoredCount,
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount)
	return result, nil
}

func (s *CrawlerService) processItem(ctx context.Context, item models.FeedItem, result *CrawlResult) {
	targetURL := s.resolver.ResolveURL(ctx, item.Link, s.browser)
	if targetURL != item.Link {
		result.ResolvedCount++
	}

	if s.repo != nil {
		exists, err := s.repo.ArticleExists(ctx, targetURL)
		if err != nil {
			s.recordError(result, fmt.Errorf("existence check failed for %s: %w", targetURL, err))
			return
		}
		if exists {
			result.SkippedCount++
			return
		}
	}

	article, err := s.fetcher.FetchArticle(ctx, targetURL)
	if err != nil {
		s.recordError(result, fmt.Errorf("fetch failed for %s: %w", targetURL, err))
		return
	}
	if article == nil {
		result.SkippedCount++
		return
	}

	article.SourceURL = item.Link
	article.PublishedAt = item.PublishedAt
	if article.Title == "" {
		article.Title = item.Title
	}

	if s.repo != nil {
		if err := s.repo.CreateArticle(ctx, article); err != nil {
			s.recordError(result, fmt.Errorf("store failed for %s: %w", targetURL, err))
			return
		}
	}

	result.StoredCount++
}

func (s *CrawlerService) recordError(result *CrawlResult, err error) {
	s.logger.Warn("crawl item failed", "error", err)
	result.Errors = append(result.Errors, err)
	result.ErrorCount++
}

// sleepBetweenItems keeps the crawl polite to publishers, independently of
// the resolver's own rate limiter.
func (s *CrawlerService) sleepBetweenItems(ctx context.Context) error {
	if s.cfg.ItemSleep <= 0 {
		return nil
	}

	timer := time.NewTimer(s.cfg.ItemSleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
