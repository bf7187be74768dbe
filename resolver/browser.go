// ABOUTME: This file implements the last-resort strategy that drives a headless browser
// ABOUTME: Follows real redirects and scrapes rendered outbound links when HTTP-only strategies fail
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
)

// BrowserHandle is the navigable page collaborator consumed by the browser
// strategy. The chromedp-backed implementation lives in the browser package;
// tests substitute their own.
type BrowserHandle interface {
	Navigate(ctx context.Context, url string) error
	Settle(ctx context.Context, delay time.Duration) error
	CurrentURL(ctx context.Context) (string, error)
	ExtractLinks(ctx context.Context, selector string) ([]string, error)
}

// BrowserResolver navigates the aggregator link in a real browser and
// accepts either the post-redirect location or the first usable rendered
// outbound link.
type BrowserResolver struct {
	handle      BrowserHandle
	navTimeout  time.Duration
	settleDelay time.Duration
	logger      *slog.Logger
}

func NewBrowserResolver(handle BrowserHandle, cfg config.BrowserConfig, logger *slog.Logger) *BrowserResolver {
	return &BrowserResolver{
		handle:      handle,
		navTimeout:  cfg.NavTimeout,
		settleDelay: cfg.SettleDelay,
		logger:      logger,
	}
}

func (b *BrowserResolver) Name() string {
	return "browser"
}

func (b *BrowserResolver) Attempt(ctx context.Context, rc *ResolutionContext) (string, error) {
	navCtx, cancel := context.WithTimeout(ctx, b.navTimeout)
	defer cancel()

	if err := b.handle.Navigate(navCtx, rc.SourceURL); err != nil {
		return "", fmt.Errorf("browser navigation failed: %w", err)
	}

	// Give client-side redirect scripts a moment to fire.
	if err := b.handle.Settle(navCtx, b.settleDelay); err != nil {
		return "", fmt.Errorf("browser settle failed: %w", err)
	}

	landed, err := b.handle.CurrentURL(navCtx)
	if err != nil {
		return "", fmt.Errorf("failed to read browser location: %w", err)
	}
	if isValidCandidate(landed) {
		b.logger.Debug("browser followed redirect", "url", landed)
		return landed, nil
	}

	// Still on the aggregator: scrape rendered outbound links instead.
	links, err := b.handle.ExtractLinks(navCtx, "a[href]")
	if err != nil {
		return "", fmt.Errorf("failed to extract rendered links: %w", err)
	}
	for _, link := range links {
		if isValidCandidate(link) {
			b.logger.Debug("browser scraped outbound link", "url", link)
			return link, nil
		}
	}

	return "", nil
}
