package config

import (
	"errors"
	"fmt"
)

func validateConfig(config *Config) error {
	if err := validateHTTPConfig(&config.HTTP); err != nil {
		return fmt.Errorf("HTTP config: %w", err)
	}

	if err := validateRetryConfig(&config.Retry); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}

	if err := validateRateLimitConfig(&config.RateLimit); err != nil {
		return fmt.Errorf("rate limit config: %w", err)
	}

	if err := validateCacheConfig(&config.Cache); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := validateProxyConfig(&config.Proxy); err != nil {
		return fmt.Errorf("proxy config: %w", err)
	}

	if err := validateFeedConfig(&config.Feed); err != nil {
		return fmt.Errorf("feed config: %w", err)
	}

	if err := validateCrawlerConfig(&config.Crawler); err != nil {
		return fmt.Errorf("crawler config: %w", err)
	}

	return nil
}

func validateHTTPConfig(cfg *HTTPConfig) error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if cfg.MaxIdleConns < 0 {
		return errors.New("max idle conns must not be negative")
	}

	if cfg.MaxRedirects < 0 {
		return errors.New("max redirects must not be negative")
	}

	if cfg.UserAgent == "" {
		return errors.New("user agent must not be empty")
	}

	return nil
}

func validateRetryConfig(cfg *RetryConfig) error {
	if cfg.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}

	if cfg.BaseDelay <= 0 {
		return errors.New("base delay must be positive")
	}

	if cfg.MaxDelay < cfg.BaseDelay {
		return errors.New("max delay must not be less than base delay")
	}

	if cfg.BackoffFactor < 1.0 {
		return errors.New("backoff factor must be at least 1.0")
	}

	if cfg.JitterFactor < 0 || cfg.JitterFactor > 1.0 {
		return errors.New("jitter factor must be between 0 and 1")
	}

	return nil
}

func validateRateLimitConfig(cfg *RateLimitConfig) error {
	if cfg.MinInterval <= 0 {
		return errors.New("min interval must be positive")
	}

	return nil
}

func validateCacheConfig(cfg *CacheConfig) error {
	if cfg.TTL <= 0 {
		return errors.New("TTL must be positive")
	}

	if cfg.MaxEntries <= 0 {
		return errors.New("max entries must be positive")
	}

	if cfg.PersistEnabled {
		if cfg.PersistPath == "" {
			return errors.New("persist path must not be empty when persistence is enabled")
		}
		if cfg.PersistInterval <= 0 {
			return errors.New("persist interval must be positive when persistence is enabled")
		}
	}

	return nil
}

func validateProxyConfig(cfg *ProxyConfig) error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	if cfg.ErrorThreshold <= 0 {
		return errors.New("error threshold must be positive")
	}

	return nil
}

func validateFeedConfig(cfg *FeedConfig) error {
	if cfg.URL == "" {
		return errors.New("feed URL must not be empty")
	}

	if cfg.Limit <= 0 {
		return errors.New("limit must be positive")
	}

	return nil
}

func validateCrawlerConfig(cfg *CrawlerConfig) error {
	if cfg.Interval <= 0 {
		return errors.New("interval must be positive")
	}

	if cfg.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	return nil
}
