// ABOUTME: This file downloads publisher articles and extracts readable content
// ABOUTME: URLs are validated against SSRF targets before any request is made
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/models"
)

// URL scheme constants
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// HTTPClient interface for dependency injection.
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// articleFetcherService implementation.
type articleFetcherService struct {
	logger     *slog.Logger
	httpClient HTTPClient
	sanitizer  *bluemonday.Policy
}

// NewArticleFetcherService creates a fetcher with a client built from config.
func NewArticleFetcherService(cfg *config.Config, logger *slog.Logger) ArticleFetcherService {
	client := &HTTPClientWrapper{
		Client: &http.Client{Timeout: cfg.HTTP.Timeout},
		Config: &cfg.HTTP,
	}

	return &articleFetcherService{
		logger:     logger,
		httpClient: client,
		sanitizer:  bluemonday.UGCPolicy(),
	}
}

// NewArticleFetcherServiceWithClient creates a fetcher with a custom HTTP client.
func NewArticleFetcherServiceWithClient(logger *slog.Logger, httpClient HTTPClient) ArticleFetcherService {
	return &articleFetcherService{
		logger:     logger,
		httpClient: httpClient,
		sanitizer:  bluemonday.UGCPolicy(),
	}
}

// FetchArticle downloads the page at urlStr and extracts its readable
// content. Returns (nil, nil) when the page has no extractable article body.
func (s *articleFetcherService) FetchArticle(ctx context.Context, urlStr string) (*models.Article, error) {
	if err := s.ValidateURL(urlStr); err != nil {
		return nil, fmt.Errorf("refusing to fetch %s: %w", urlStr, err)
	}

	resp, err := s.httpClient.Get(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("article fetch returned HTTP %d", resp.StatusCode)
	}

	pageURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	extracted, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract article content: %w", err)
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(extracted.TextContent))
	if content == "" {
		s.logger.InfoContext(ctx, "page had no extractable content", "url", urlStr)
		return nil, nil
	}

	return &models.Article{
		Title:   extracted.Title,
		Content: content,
		URL:     urlStr,
	}, nil
}

// ValidateURL validates a URL for security and format.
func (s *articleFetcherService) ValidateURL(urlStr string) error {
	if urlStr == "" {
		return errors.New("URL cannot be empty")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return err
	}

	if parsedURL.Scheme != SchemeHTTP && parsedURL.Scheme != SchemeHTTPS {
		return errors.New("only HTTP or HTTPS schemes allowed")
	}

	if parsedURL.Hostname() == "" {
		return errors.New("URL must contain a host")
	}

	if s.isPrivateHost(parsedURL.Hostname()) {
		return errors.New("access to private networks not allowed")
	}

	if port := parsedURL.Port(); port != "" {
		if err := s.validatePort(port); err != nil {
			return err
		}
	}

	return nil
}

// HTTPClientWrapper wraps http.Client to implement HTTPClient with the
// configured User-Agent and browser headers.
type HTTPClientWrapper struct {
	*http.Client
	Config *config.HTTPConfig
}

func (w *HTTPClientWrapper) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	userAgent := w.Config.UserAgent
	req.Header.Set("User-Agent", userAgent)

	if w.Config.EnableBrowserHeaders {
		for key, value := range w.Config.GetBrowserHeaders(userAgent) {
			if key != "User-Agent" && key != "Accept-Encoding" {
				req.Header.Set(key, value)
			}
		}
	}

	return w.Do(req)
}

func (s *articleFetcherService) validatePort(port string) error {
	blockedPorts := map[string]bool{
		"22": true, "23": true, "25": true, "53": true, "110": true,
		"143": true, "993": true, "995": true, "1433": true, "3306": true,
		"5432": true, "6379": true, "11211": true,
	}

	if blockedPorts[port] {
		return errors.New("access to this port is not allowed")
	}

	return nil
}

func (s *articleFetcherService) isPrivateHost(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip != nil {
		return s.isPrivateIPAddress(ip)
	}

	hostname = strings.ToLower(hostname)
	if hostname == "localhost" || strings.HasPrefix(hostname, "127.") {
		return true
	}

	if hostname == "169.254.169.254" || hostname == "metadata.google.internal" {
		return true
	}

	internalDomains := []string{".local", ".internal", ".corp", ".lan"}
	for _, domain := range internalDomains {
		if strings.HasSuffix(hostname, domain) {
			return true
		}
	}

	return false
}

func (s *articleFetcherService) isPrivateIPAddress(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		case ip4[0] == 127:
			return true
		}
		return false
	}

	if ip6 := ip.To16(); ip6 != nil {
		if ip6[0] == 0xfe && ip6[1] == 0x80 {
			return true
		}
		if ip6[0] == 0xfc && ip6[1] == 0x00 {
			return true
		}
	}

	return false
}
