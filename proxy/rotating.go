// ABOUTME: This file implements a round-robin proxy pool with error-driven rotation
// ABOUTME: Rotates on demand and automatically after repeated failures on the active proxy
package proxy

import (
	"log/slog"
	"sync"
	"time"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
)

// RotatingProvider cycles through a fixed pool of proxy URLs. It rotates on
// demand (Rotate) and on its own once the active proxy accumulates
// errorThreshold failures.
type RotatingProvider struct {
	urls           []string
	timeout        time.Duration
	errorThreshold int
	logger         *slog.Logger

	mu         sync.Mutex
	index      int
	errorCount int
}

func NewRotatingProvider(cfg config.ProxyConfig, logger *slog.Logger) *RotatingProvider {
	return &RotatingProvider{
		urls:           cfg.URLs,
		timeout:        cfg.Timeout,
		errorThreshold: cfg.ErrorThreshold,
		logger:         logger,
	}
}

func (p *RotatingProvider) ProxyConfig(targetURL string) (ProxyConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.urls) == 0 {
		return ProxyConfig{}, false
	}

	return ProxyConfig{
		ProxyURL: p.urls[p.index],
		Timeout:  p.timeout,
	}, true
}

func (p *RotatingProvider) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rotateLocked("forced")
}

func (p *RotatingProvider) ReportError(targetURL string, err error, statusCode int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.urls) == 0 {
		return
	}

	p.errorCount++
	p.logger.Warn("proxy error reported",
		"proxy", p.urls[p.index],
		"target_url", targetURL,
		"status_code", statusCode,
		"error", err,
		"error_count", p.errorCount)

	if p.errorCount >= p.errorThreshold {
		p.rotateLocked("error threshold reached")
	}
}

func (p *RotatingProvider) rotateLocked(reason string) {
	if len(p.urls) < 1 {
		return
	}

	previous := p.urls[p.index]
	p.index = (p.index + 1) % len(p.urls)
	p.errorCount = 0

	p.logger.Info("rotated proxy",
		"reason", reason,
		"previous", previous,
		"current", p.urls[p.index])
}
