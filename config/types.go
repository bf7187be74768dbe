package config

import (
	"strings"
	"time"
)

// Config aggregates all service configuration blocks.
type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	Retry     RetryConfig     `json:"retry"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Cache     CacheConfig     `json:"cache"`
	Proxy     ProxyConfig     `json:"proxy"`
	Browser   BrowserConfig   `json:"browser"`
	Feed      FeedConfig      `json:"feed"`
	Crawler   CrawlerConfig   `json:"crawler"`
	Database  DatabaseConfig  `json:"database"`
}

type HTTPConfig struct {
	Timeout               time.Duration `json:"timeout" env:"HTTP_TIMEOUT" default:"30s"`
	MaxIdleConns          int           `json:"max_idle_conns" env:"HTTP_MAX_IDLE_CONNS" default:"10"`
	MaxIdleConnsPerHost   int           `json:"max_idle_conns_per_host" env:"HTTP_MAX_IDLE_CONNS_PER_HOST" default:"2"`
	IdleConnTimeout       time.Duration `json:"idle_conn_timeout" env:"HTTP_IDLE_CONN_TIMEOUT" default:"90s"`
	TLSHandshakeTimeout   time.Duration `json:"tls_handshake_timeout" env:"HTTP_TLS_HANDSHAKE_TIMEOUT" default:"10s"`
	ExpectContinueTimeout time.Duration `json:"expect_continue_timeout" env:"HTTP_EXPECT_CONTINUE_TIMEOUT" default:"1s"`
	UserAgent             string        `json:"user_agent" env:"HTTP_USER_AGENT" default:"Mozilla/5.0 (compatible; NewsScraperBot/1.0)"`
	UserAgentRotation     bool          `json:"user_agent_rotation" env:"HTTP_USER_AGENT_ROTATION" default:"true"`
	UserAgents            []string      `json:"user_agents" env:"HTTP_USER_AGENTS"`
	EnableBrowserHeaders  bool          `json:"enable_browser_headers" env:"HTTP_ENABLE_BROWSER_HEADERS" default:"true"`
	MaxRedirects          int           `json:"max_redirects" env:"HTTP_MAX_REDIRECTS" default:"5"`
	FollowRedirects       bool          `json:"follow_redirects" env:"HTTP_FOLLOW_REDIRECTS" default:"true"`
}

type RetryConfig struct {
	MaxAttempts   int           `json:"max_attempts" env:"RETRY_MAX_ATTEMPTS" default:"5"`
	BaseDelay     time.Duration `json:"base_delay" env:"RETRY_BASE_DELAY" default:"500ms"`
	MaxDelay      time.Duration `json:"max_delay" env:"RETRY_MAX_DELAY" default:"10s"`
	BackoffFactor float64       `json:"backoff_factor" env:"RETRY_BACKOFF_FACTOR" default:"2.0"`
	JitterFactor  float64       `json:"jitter_factor" env:"RETRY_JITTER_FACTOR" default:"0.1"`
}

type RateLimitConfig struct {
	MinInterval time.Duration `json:"min_interval" env:"RATE_LIMIT_MIN_INTERVAL" default:"1s"`
}

type CacheConfig struct {
	TTL             time.Duration `json:"ttl" env:"CACHE_TTL" default:"24h"`
	MaxEntries      int           `json:"max_entries" env:"CACHE_MAX_ENTRIES" default:"10000"`
	PersistPath     string        `json:"persist_path" env:"CACHE_PERSIST_PATH" default:"data/resolution-cache.json"`
	PersistInterval time.Duration `json:"persist_interval" env:"CACHE_PERSIST_INTERVAL" default:"5m"`
	PersistEnabled  bool          `json:"persist_enabled" env:"CACHE_PERSIST_ENABLED" default:"true"`
}

type ProxyConfig struct {
	URLs           []string      `json:"urls" env:"PROXY_URLS"`
	Timeout        time.Duration `json:"timeout" env:"PROXY_TIMEOUT" default:"30s"`
	ErrorThreshold int           `json:"error_threshold" env:"PROXY_ERROR_THRESHOLD" default:"3"`
}

type BrowserConfig struct {
	Enabled     bool          `json:"enabled" env:"BROWSER_ENABLED" default:"false"`
	NavTimeout  time.Duration `json:"nav_timeout" env:"BROWSER_NAV_TIMEOUT" default:"30s"`
	SettleDelay time.Duration `json:"settle_delay" env:"BROWSER_SETTLE_DELAY" default:"2s"`
}

type FeedConfig struct {
	URL   string `json:"url" env:"FEED_URL" default:"https://news.google.com/rss"`
	Limit int    `json:"limit" env:"FEED_LIMIT" default:"40"`
}

type CrawlerConfig struct {
	Interval  time.Duration `json:"interval" env:"CRAWL_INTERVAL" default:"30m"`
	ItemSleep time.Duration `json:"item_sleep" env:"CRAWL_ITEM_SLEEP" default:"5s"`
	BatchSize int           `json:"batch_size" env:"CRAWL_BATCH_SIZE" default:"40"`
}

type DatabaseConfig struct {
	Enabled  bool   `json:"enabled" env:"DB_ENABLED" default:"false"`
	Host     string `json:"host" env:"DB_HOST" default:"localhost"`
	Port     string `json:"port" env:"DB_PORT" default:"5432"`
	User     string `json:"user" env:"DB_USER" default:"scraper"`
	Password string `json:"password" env:"DB_PASSWORD"`
	Name     string `json:"name" env:"DB_NAME" default:"news"`
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:               30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			UserAgent:             "Mozilla/5.0 (compatible; NewsScraperBot/1.0)",
			UserAgentRotation:     true,
			UserAgents:            defaultUserAgents(),
			EnableBrowserHeaders:  true,
			MaxRedirects:          5,
			FollowRedirects:       true,
		},
		Retry: RetryConfig{
			MaxAttempts:   5,
			BaseDelay:     500 * time.Millisecond,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterFactor:  0.1,
		},
		RateLimit: RateLimitConfig{
			MinInterval: 1 * time.Second,
		},
		Cache: CacheConfig{
			TTL:             24 * time.Hour,
			MaxEntries:      10000,
			PersistPath:     "data/resolution-cache.json",
			PersistInterval: 5 * time.Minute,
			PersistEnabled:  true,
		},
		Proxy: ProxyConfig{
			Timeout:        30 * time.Second,
			ErrorThreshold: 3,
		},
		Browser: BrowserConfig{
			Enabled:     false,
			NavTimeout:  30 * time.Second,
			SettleDelay: 2 * time.Second,
		},
		Feed: FeedConfig{
			URL:   "https://news.google.com/rss",
			Limit: 40,
		},
		Crawler: CrawlerConfig{
			Interval:  30 * time.Minute,
			ItemSleep: 5 * time.Second,
			BatchSize: 40,
		},
		Database: DatabaseConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    "5432",
			User:    "scraper",
			Name:    "news",
		},
	}
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (compatible; NewsScraperBot/1.0)",
	}
}

func (config *HTTPConfig) GetBrowserHeaders(userAgent string) map[string]string {
	if !config.EnableBrowserHeaders {
		return map[string]string{
			"User-Agent": userAgent,
		}
	}

	headers := map[string]string{
		"User-Agent":                userAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Accept-Encoding":           "gzip, deflate, br",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
	}

	if strings.Contains(userAgent, "Chrome") {
		headers["sec-ch-ua"] = `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`
		headers["sec-ch-ua-mobile"] = "?0"
		headers["sec-ch-ua-platform"] = `"Windows"`
	} else if strings.Contains(userAgent, "Firefox") {
		headers["Cache-Control"] = "max-age=0"
	}

	return headers
}
