// ABOUTME: This file implements the two-phase batch RPC strategy for current-format identifiers
// ABOUTME: Phase 1 scrapes signing parameters from the article page, Phase 2 calls the batch endpoint
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/proxy"
	"github.com/YevheniiM/google-news-scrapper-sub000/retry"
)

const (
	batchEndpointPath = "/_/DotsSplashUi/data/batchexecute"

	// batchRPCMethod and the garturlreq envelope below must match the
	// aggregator's own frontend byte-for-byte; the backend rejects any
	// variation in shape.
	batchRPCMethod = "Fbv4je"
)

// SigningParams authorize one batch-decode call. They are short-lived and
// never cached; re-deriving is cheaper than risking a stale signature.
type SigningParams struct {
	ArticleID string
	Signature string
	Timestamp int64
	Profile   string
}

// headerProfile is one client fingerprint tried during Phase 1. The
// aggregator serves different markup per fingerprint, so the resolver walks
// the profiles until one exposes the signed container.
type headerProfile struct {
	name  string
	build func(r *RPCResolver) map[string]string
}

func headerProfiles() []headerProfile {
	return []headerProfile{
		{name: "standard", build: func(r *RPCResolver) map[string]string {
			return r.httpCfg.GetBrowserHeaders(r.rotator.GetUserAgent())
		}},
		{name: "mobile", build: func(r *RPCResolver) map[string]string {
			return map[string]string{
				"User-Agent":      "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "en-US,en;q=0.9",
			}
		}},
		{name: "rss", build: func(r *RPCResolver) map[string]string {
			return map[string]string{
				"User-Agent": "Mozilla/5.0 (compatible; NewsScraperBot/1.0)",
				"Accept":     "application/rss+xml, application/xml, text/html;q=0.8",
			}
		}},
		{name: "minimal", build: func(r *RPCResolver) map[string]string {
			return map[string]string{
				"User-Agent": r.rotator.GetUserAgent(),
			}
		}},
	}
}

// RPCResolver resolves current-format identifiers through the aggregator's
// internal batch endpoint.
type RPCResolver struct {
	httpCfg    config.HTTPConfig
	client     *http.Client
	baseURL    string
	rotator    *config.UserAgentRotator
	proxies    proxy.Provider
	retrier    *retry.Retrier
	logger     *slog.Logger
	forceFresh bool
}

func NewRPCResolver(cfg *config.Config, env CostEnvironment, proxies proxy.Provider, logger *slog.Logger) *RPCResolver {
	retryCfg := retry.RetryConfig{
		MaxAttempts:   env.RPCMaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		JitterFactor:  cfg.Retry.JitterFactor,
	}

	client := &http.Client{
		Timeout: env.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:          cfg.HTTP.MaxIdleConns,
			MaxIdleConnsPerHost:   cfg.HTTP.MaxIdleConnsPerHost,
			IdleConnTimeout:       cfg.HTTP.IdleConnTimeout,
			TLSHandshakeTimeout:   cfg.HTTP.TLSHandshakeTimeout,
			ExpectContinueTimeout: cfg.HTTP.ExpectContinueTimeout,
		},
	}

	return &RPCResolver{
		httpCfg: cfg.HTTP,
		client:  client,
		baseURL: "https://" + aggregatorDomain,
		rotator: config.NewUserAgentRotator(&cfg.HTTP),
		proxies: proxies,
		retrier: retry.NewRetrier(retryCfg, retry.IsRetryableError, logger),
		logger:  logger,
	}
}

func (r *RPCResolver) Name() string {
	if r.forceFresh {
		return "rpc_fresh_proxy"
	}
	return "rpc"
}

// WithFreshProxy returns a variant of this resolver that forces a proxy
// rotation before attempting, used as the second pass in the strategy chain.
func (r *RPCResolver) WithFreshProxy() *RPCResolver {
	fresh := *r
	fresh.forceFresh = true
	return &fresh
}

func (r *RPCResolver) Attempt(ctx context.Context, rc *ResolutionContext) (string, error) {
	if r.forceFresh {
		r.proxies.Rotate()
	}

	params, err := r.fetchSigningParams(ctx, rc.Identifier)
	if err != nil {
		return "", fmt.Errorf("signing parameter fetch failed: %w", err)
	}

	candidate, err := r.callBatchEndpoint(ctx, params)
	if err != nil {
		return "", fmt.Errorf("batch call failed: %w", err)
	}

	if !isValidCandidate(candidate) {
		r.logger.Debug("batch endpoint returned an unusable candidate", "candidate", candidate)
		return "", nil
	}
	return candidate, nil
}

// fetchSigningParams walks the header profiles until the article page yields
// the signed container. Block statuses report a proxy error and force a
// rotation before the next profile is tried.
func (r *RPCResolver) fetchSigningParams(ctx context.Context, identifier string) (*SigningParams, error) {
	pageURL := r.baseURL + "/rss/articles/" + identifier

	var lastErr error
	for _, profile := range headerProfiles() {
		params, err := r.fetchWithProfile(ctx, pageURL, identifier, profile)
		if err != nil {
			lastErr = err
			if status := retry.StatusCode(err); retry.IsBlockStatus(status) {
				r.proxies.ReportError(pageURL, err, status)
				r.proxies.Rotate()
			}
			r.logger.Debug("header profile failed", "profile", profile.name, "error", err)
			continue
		}
		return params, nil
	}

	return nil, fmt.Errorf("no header profile exposed signing parameters: %w", lastErr)
}

func (r *RPCResolver) fetchWithProfile(ctx context.Context, pageURL, identifier string, profile headerProfile) (*SigningParams, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}
	for key, value := range profile.build(r) {
		// Setting Accept-Encoding by hand disables the transport's
		// transparent gzip handling, so leave negotiation to it.
		if strings.EqualFold(key, "Accept-Encoding") {
			continue
		}
		req.Header.Set(key, value)
	}

	resp, err := r.clientFor(pageURL).Do(req)
	if err != nil {
		return nil, fmt.Errorf("page fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "article page fetch"}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article page: %w", err)
	}

	container := doc.Find("c-wiz[data-n-a-sg]").First()
	if container.Length() == 0 {
		return nil, errors.New("signed container not present in page")
	}

	signature, _ := container.Attr("data-n-a-sg")
	tsAttr, _ := container.Attr("data-n-a-ts")
	timestamp, err := strconv.ParseInt(tsAttr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("signed container has a non-numeric timestamp %q: %w", tsAttr, err)
	}
	if signature == "" {
		return nil, errors.New("signed container has an empty signature")
	}

	articleID := identifier
	if id, ok := container.Attr("data-n-a-id"); ok && id != "" {
		articleID = id
	}

	r.logger.Debug("acquired signing parameters", "profile", profile.name, "article_id", articleID)
	return &SigningParams{
		ArticleID: articleID,
		Signature: signature,
		Timestamp: timestamp,
		Profile:   profile.name,
	}, nil
}

// callBatchEndpoint POSTs the garturlreq envelope under the retry policy.
// Block statuses rotate the proxy before the next attempt; 400/404 abort.
func (r *RPCResolver) callBatchEndpoint(ctx context.Context, params *SigningParams) (string, error) {
	endpoint := r.baseURL + batchEndpointPath
	form := url.Values{"f.req": {buildBatchPayload(params)}}
	body := form.Encode()

	var resolved string
	err := r.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build batch request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
		// Random rather than round-robin so retried batch calls do not
		// present the pool in a predictable order.
		req.Header.Set("User-Agent", r.rotator.GetRandomUserAgent())

		resp, err := r.clientFor(endpoint).Do(req)
		if err != nil {
			return fmt.Errorf("batch request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			httpErr := &retry.HTTPError{StatusCode: resp.StatusCode, Message: "batch endpoint"}
			if retry.IsBlockStatus(resp.StatusCode) {
				r.proxies.ReportError(endpoint, httpErr, resp.StatusCode)
				r.proxies.Rotate()
			}
			return httpErr
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read batch response: %w", err)
		}

		candidate, err := parseBatchResponse(string(raw))
		if err != nil {
			r.logger.Debug("batch response did not match the expected envelope", "error", err)
			return err
		}

		resolved = candidate
		return nil
	})
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// buildBatchPayload assembles the f.req envelope. The inner garturlreq array
// is serialized JSON embedded as a string inside the outer call frame.
func buildBatchPayload(params *SigningParams) string {
	inner := fmt.Sprintf(
		`["garturlreq",[["X","X",["X","X"],null,null,1,1,"US:en",null,1,null,null,null,null,null,0,1],"X","X",1,[1,1,1],1,1,null,0,0,null,0],%q,%d,%q]`,
		params.ArticleID, params.Timestamp, params.Signature,
	)

	envelope, _ := json.Marshal([][][]any{{{batchRPCMethod, inner, nil, "generic"}}})
	return string(envelope)
}

// parseBatchResponse unwraps the batch envelope: skip the anti-JSON guard
// line, JSON-parse the data segment, drop its two trailing bookkeeping
// elements, then parse the first element's nested payload, a 2-element array
// whose second entry is the candidate URL.
func parseBatchResponse(body string) (string, error) {
	segments := strings.SplitN(body, "\n\n", 2)
	if len(segments) < 2 {
		return "", errors.New("missing data segment delimiter")
	}

	var outer []json.RawMessage
	if err := json.Unmarshal([]byte(segments[1]), &outer); err != nil {
		return "", fmt.Errorf("data segment is not a JSON array: %w", err)
	}
	if len(outer) < 3 {
		return "", fmt.Errorf("data segment too short: %d elements", len(outer))
	}
	outer = outer[:len(outer)-2]

	var first []json.RawMessage
	if err := json.Unmarshal(outer[0], &first); err != nil {
		return "", fmt.Errorf("first frame is not an array: %w", err)
	}
	if len(first) < 3 {
		return "", fmt.Errorf("first frame too short: %d elements", len(first))
	}

	var nested string
	if err := json.Unmarshal(first[2], &nested); err != nil {
		return "", fmt.Errorf("nested payload is not a string: %w", err)
	}

	var payload []any
	if err := json.Unmarshal([]byte(nested), &payload); err != nil {
		return "", fmt.Errorf("nested payload is not JSON: %w", err)
	}
	if len(payload) < 2 {
		return "", fmt.Errorf("nested payload too short: %d elements", len(payload))
	}

	candidate, ok := payload[1].(string)
	if !ok {
		return "", errors.New("candidate element is not a string")
	}
	return candidate, nil
}

// clientFor wraps the base client with the active proxy for the target, or
// returns the base client when the provider hands out an empty config.
func (r *RPCResolver) clientFor(targetURL string) *http.Client {
	pc, ok := r.proxies.ProxyConfig(targetURL)
	if !ok || pc.ProxyURL == "" {
		return r.client
	}

	proxyURL, err := url.Parse(pc.ProxyURL)
	if err != nil {
		r.logger.Warn("invalid proxy url, proceeding without proxy", "proxy_url", pc.ProxyURL, "error", err)
		return r.client
	}

	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = r.client.Timeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyURL(proxyURL),
			TLSHandshakeTimeout: r.httpCfg.TLSHandshakeTimeout,
		},
	}
}
