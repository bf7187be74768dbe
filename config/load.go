package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds the configuration from defaults and overrides provided via environment variables.
func LoadConfig() (*Config, error) {
	config := defaultConfig()

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func loadFromEnv(config *Config) error {
	if err := loadHTTPConfig(&config.HTTP); err != nil {
		return fmt.Errorf("failed to load HTTP config: %w", err)
	}

	if err := loadRetryConfig(&config.Retry); err != nil {
		return fmt.Errorf("failed to load retry config: %w", err)
	}

	if err := loadRateLimitConfig(&config.RateLimit); err != nil {
		return fmt.Errorf("failed to load rate limit config: %w", err)
	}

	if err := loadCacheConfig(&config.Cache); err != nil {
		return fmt.Errorf("failed to load cache config: %w", err)
	}

	if err := loadProxyConfig(&config.Proxy); err != nil {
		return fmt.Errorf("failed to load proxy config: %w", err)
	}

	if err := loadBrowserConfig(&config.Browser); err != nil {
		return fmt.Errorf("failed to load browser config: %w", err)
	}

	if err := loadFeedConfig(&config.Feed); err != nil {
		return fmt.Errorf("failed to load feed config: %w", err)
	}

	if err := loadCrawlerConfig(&config.Crawler); err != nil {
		return fmt.Errorf("failed to load crawler config: %w", err)
	}

	if err := loadDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	return nil
}

func loadHTTPConfig(cfg *HTTPConfig) error {
	var err error

	if cfg.Timeout, err = parseDurationEnv("HTTP_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.MaxIdleConns, err = parseIntEnv("HTTP_MAX_IDLE_CONNS", cfg.MaxIdleConns); err != nil {
		return err
	}

	if cfg.MaxIdleConnsPerHost, err = parseIntEnv("HTTP_MAX_IDLE_CONNS_PER_HOST", cfg.MaxIdleConnsPerHost); err != nil {
		return err
	}

	if cfg.IdleConnTimeout, err = parseDurationEnv("HTTP_IDLE_CONN_TIMEOUT", cfg.IdleConnTimeout); err != nil {
		return err
	}

	if cfg.TLSHandshakeTimeout, err = parseDurationEnv("HTTP_TLS_HANDSHAKE_TIMEOUT", cfg.TLSHandshakeTimeout); err != nil {
		return err
	}

	if cfg.ExpectContinueTimeout, err = parseDurationEnv("HTTP_EXPECT_CONTINUE_TIMEOUT", cfg.ExpectContinueTimeout); err != nil {
		return err
	}

	cfg.UserAgent = parseStringEnv("HTTP_USER_AGENT", cfg.UserAgent)

	if cfg.UserAgentRotation, err = parseBoolEnv("HTTP_USER_AGENT_ROTATION", cfg.UserAgentRotation); err != nil {
		return err
	}

	cfg.UserAgents = parseStringSliceEnv("HTTP_USER_AGENTS", cfg.UserAgents)

	if cfg.EnableBrowserHeaders, err = parseBoolEnv("HTTP_ENABLE_BROWSER_HEADERS", cfg.EnableBrowserHeaders); err != nil {
		return err
	}

	if cfg.MaxRedirects, err = parseIntEnv("HTTP_MAX_REDIRECTS", cfg.MaxRedirects); err != nil {
		return err
	}

	if cfg.FollowRedirects, err = parseBoolEnv("HTTP_FOLLOW_REDIRECTS", cfg.FollowRedirects); err != nil {
		return err
	}

	return nil
}

func loadRetryConfig(cfg *RetryConfig) error {
	var err error

	if cfg.MaxAttempts, err = parseIntEnv("RETRY_MAX_ATTEMPTS", cfg.MaxAttempts); err != nil {
		return err
	}

	if cfg.BaseDelay, err = parseDurationEnv("RETRY_BASE_DELAY", cfg.BaseDelay); err != nil {
		return err
	}

	if cfg.MaxDelay, err = parseDurationEnv("RETRY_MAX_DELAY", cfg.MaxDelay); err != nil {
		return err
	}

	if cfg.BackoffFactor, err = parseFloatEnv("RETRY_BACKOFF_FACTOR", cfg.BackoffFactor); err != nil {
		return err
	}

	if cfg.JitterFactor, err = parseFloatEnv("RETRY_JITTER_FACTOR", cfg.JitterFactor); err != nil {
		return err
	}

	return nil
}

func loadRateLimitConfig(cfg *RateLimitConfig) error {
	var err error

	if cfg.MinInterval, err = parseDurationEnv("RATE_LIMIT_MIN_INTERVAL", cfg.MinInterval); err != nil {
		return err
	}

	return nil
}

func loadCacheConfig(cfg *CacheConfig) error {
	var err error

	if cfg.TTL, err = parseDurationEnv("CACHE_TTL", cfg.TTL); err != nil {
		return err
	}

	if cfg.MaxEntries, err = parseIntEnv("CACHE_MAX_ENTRIES", cfg.MaxEntries); err != nil {
		return err
	}

	cfg.PersistPath = parseStringEnv("CACHE_PERSIST_PATH", cfg.PersistPath)

	if cfg.PersistInterval, err = parseDurationEnv("CACHE_PERSIST_INTERVAL", cfg.PersistInterval); err != nil {
		return err
	}

	if cfg.PersistEnabled, err = parseBoolEnv("CACHE_PERSIST_ENABLED", cfg.PersistEnabled); err != nil {
		return err
	}

	return nil
}

func loadProxyConfig(cfg *ProxyConfig) error {
	var err error

	cfg.URLs = parseStringSliceEnv("PROXY_URLS", cfg.URLs)

	if cfg.Timeout, err = parseDurationEnv("PROXY_TIMEOUT", cfg.Timeout); err != nil {
		return err
	}

	if cfg.ErrorThreshold, err = parseIntEnv("PROXY_ERROR_THRESHOLD", cfg.ErrorThreshold); err != nil {
		return err
	}

	return nil
}

func loadBrowserConfig(cfg *BrowserConfig) error {
	var err error

	if cfg.Enabled, err = parseBoolEnv("BROWSER_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	if cfg.NavTimeout, err = parseDurationEnv("BROWSER_NAV_TIMEOUT", cfg.NavTimeout); err != nil {
		return err
	}

	if cfg.SettleDelay, err = parseDurationEnv("BROWSER_SETTLE_DELAY", cfg.SettleDelay); err != nil {
		return err
	}

	return nil
}

func loadFeedConfig(cfg *FeedConfig) error {
	var err error

	cfg.URL = parseStringEnv("FEED_URL", cfg.URL)

	if cfg.Limit, err = parseIntEnv("FEED_LIMIT", cfg.Limit); err != nil {
		return err
	}

	return nil
}

func loadCrawlerConfig(cfg *CrawlerConfig) error {
	var err error

	if cfg.Interval, err = parseDurationEnv("CRAWL_INTERVAL", cfg.Interval); err != nil {
		return err
	}

	if cfg.ItemSleep, err = parseDurationEnv("CRAWL_ITEM_SLEEP", cfg.ItemSleep); err != nil {
		return err
	}

	if cfg.BatchSize, err = parseIntEnv("CRAWL_BATCH_SIZE", cfg.BatchSize); err != nil {
		return err
	}

	return nil
}

func loadDatabaseConfig(cfg *DatabaseConfig) error {
	var err error

	if cfg.Enabled, err = parseBoolEnv("DB_ENABLED", cfg.Enabled); err != nil {
		return err
	}

	cfg.Host = parseStringEnv("DB_HOST", cfg.Host)
	cfg.Port = parseStringEnv("DB_PORT", cfg.Port)
	cfg.User = parseStringEnv("DB_USER", cfg.User)
	cfg.Password = parseStringEnv("DB_PASSWORD", cfg.Password)
	cfg.Name = parseStringEnv("DB_NAME", cfg.Name)

	return nil
}

func parseStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return parsed, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %q", key, value)
	}
	return parsed, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %q", key, value)
	}
	return parsed, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %q", key, value)
	}
	return parsed, nil
}
