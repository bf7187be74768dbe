// ABOUTME: This file declares the service-layer interfaces and result types
// ABOUTME: Narrow interfaces keep the crawler testable with hand-rolled fakes
package service

import (
	"context"

	"github.com/YevheniiM/google-news-scrapper-sub000/models"
	"github.com/YevheniiM/google-news-scrapper-sub000/resolver"
)

// URLResolver turns aggregator redirect links into publisher URLs. Satisfied
// by the resolver orchestrator.
type URLResolver interface {
	ResolveURL(ctx context.Context, rawURL string, handle resolver.BrowserHandle) string
}

// FeedFetcher pulls the aggregator's RSS items.
type FeedFetcher interface {
	Fetch(ctx context.Context) ([]models.FeedItem, error)
}

// ArticleFetcherService downloads and extracts publisher articles.
type ArticleFetcherService interface {
	FetchArticle(ctx context.Context, url string) (*models.Article, error)
	ValidateURL(url string) error
}

// ArticleRepository persists crawled articles.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, article *models.Article) error
	ArticleExists(ctx context.Context, url string) (bool, error)
}

// CrawlResult summarizes one crawl pass over the feed.
type CrawlResult struct {
	Errors         []error
	ProcessedCount int
	ResolvedCount  int
	StoredCount    int
	SkippedCount   int
	ErrorCount     int
}
