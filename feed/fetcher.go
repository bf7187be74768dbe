// ABOUTME: This file fetches and parses the aggregator's RSS feed into feed items
// ABOUTME: Links stay opaque here; resolution happens downstream in the crawler
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/models"
)

// Fetcher pulls the configured RSS feed and normalizes its items.
type Fetcher struct {
	parser *gofeed.Parser
	cfg    config.FeedConfig
	logger *slog.Logger
}

func NewFetcher(cfg config.FeedConfig, logger *slog.Logger) *Fetcher {
	parser := gofeed.NewParser()
	parser.UserAgent = "Mozilla/5.0 (compatible; NewsScraperBot/1.0)"

	return &Fetcher{
		parser: parser,
		cfg:    cfg,
		logger: logger,
	}
}

// Fetch returns up to the configured limit of feed items, newest first as
// served by the feed. Items without a link are dropped.
func (f *Fetcher) Fetch(ctx context.Context) ([]models.FeedItem, error) {
	parsed, err := f.parser.ParseURLWithContext(f.cfg.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", f.cfg.URL, err)
	}

	items := make([]models.FeedItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if f.cfg.Limit > 0 && len(items) >= f.cfg.Limit {
			break
		}
		if item.Link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		items = append(items, models.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			GUID:        item.GUID,
			PublishedAt: published,
		})
	}

	f.logger.Info("fetched feed", "url", f.cfg.URL, "items", len(items))
	return items, nil
}
