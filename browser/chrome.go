// ABOUTME: This file provides the chromedp-backed browser handle for the browser strategy
// ABOUTME: One headless Chrome instance is shared across resolutions and closed on shutdown
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeHandle drives a single headless Chrome tab. It satisfies the
// resolver's BrowserHandle interface.
type ChromeHandle struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	logger      *slog.Logger
}

// NewChromeHandle launches headless Chrome. The returned handle must be
// closed with Close to reap the browser process.
func NewChromeHandle(ctx context.Context, logger *slog.Logger) (*ChromeHandle, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here instead of
	// on the first resolution.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch headless browser: %w", err)
	}

	logger.Info("headless browser started")
	return &ChromeHandle{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		logger:      logger,
	}, nil
}

func (h *ChromeHandle) Navigate(ctx context.Context, url string) error {
	return h.run(ctx, chromedp.Navigate(url))
}

func (h *ChromeHandle) Settle(ctx context.Context, delay time.Duration) error {
	return h.run(ctx, chromedp.Sleep(delay))
}

func (h *ChromeHandle) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := h.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (h *ChromeHandle) ExtractLinks(ctx context.Context, selector string) ([]string, error) {
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(a => a.href)`,
		selector,
	)

	var links []string
	if err := h.run(ctx, chromedp.Evaluate(script, &links)); err != nil {
		return nil, err
	}
	return links, nil
}

// Close tears down the tab and the browser process.
func (h *ChromeHandle) Close() {
	h.tabCancel()
	h.allocCancel()
	h.logger.Info("headless browser stopped")
}

// run executes actions on the shared tab, bounded by the caller's deadline.
func (h *ChromeHandle) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := h.tabCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}
