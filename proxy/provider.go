// ABOUTME: This file defines the proxy provider contract used by the resolution engine
// ABOUTME: Strategies ask for a proxy before every outbound request and report block errors back
package proxy

import "time"

// ProxyConfig describes how one outbound request should be proxied.
// A zero value means "proceed without a proxy".
type ProxyConfig struct {
	ProxyURL   string
	Timeout    time.Duration
	MaxRetries int
}

// Provider hands out proxy configurations and accepts error feedback.
type Provider interface {
	// ProxyConfig returns the proxy to use for the target URL. The second
	// return is false when the request should go out directly.
	ProxyConfig(targetURL string) (ProxyConfig, bool)

	// Rotate forces the next ProxyConfig call to return a different proxy.
	Rotate()

	// ReportError records a proxy-attributable failure (block status or
	// transport error) observed while talking to the target.
	ReportError(targetURL string, err error, statusCode int)
}

// NopProvider always proceeds without a proxy. Used when no proxy pool is
// configured and in tests.
type NopProvider struct{}

func (NopProvider) ProxyConfig(string) (ProxyConfig, bool) { return ProxyConfig{}, false }

func (NopProvider) Rotate() {}

func (NopProvider) ReportError(string, error, int) {}
