// ABOUTME: This file defines the resolution strategy interface and the per-call attempt context
// ABOUTME: Shared candidate validation and identifier extraction helpers live here too
package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/YevheniiM/google-news-scrapper-sub000/proxy"
)

const (
	// aggregatorDomain is the host whose redirect links we resolve. A
	// candidate URL containing it is never a real publisher URL.
	aggregatorDomain = "news.google.com"

	// currentFormatMarker prefixes identifiers that can only be resolved
	// through the batch RPC endpoint.
	currentFormatMarker = "AU_yqL"

	// legacyFormatMarker prefixes the older offline-decodable identifiers.
	legacyFormatMarker = "CBMi"
)

// ResolutionContext carries per-call state through the strategy chain. It is
// owned by exactly one in-flight resolution and never shared.
type ResolutionContext struct {
	Identifier string
	SourceURL  string
	Proxies    proxy.Provider
	Tried      []string
}

// Strategy is one way of turning an opaque identifier into a publisher URL.
// A clean miss is ("", nil); an error means the attempt failed and the
// orchestrator should log it and move on. Strategies never panic.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, rc *ResolutionContext) (string, error)
}

// isValidCandidate applies the acceptance rule shared by every strategy:
// non-empty, http-prefixed, and not pointing back at the aggregator.
func isValidCandidate(candidate string) bool {
	return candidate != "" &&
		strings.HasPrefix(candidate, "http") &&
		!strings.Contains(candidate, aggregatorDomain)
}

// articleIDFromURL pulls the opaque identifier out of an aggregator link such
// as https://news.google.com/rss/articles/<id>?oc=5. Inputs that do not look
// like an articles link are returned as-is so pure-identifier callers work.
func articleIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i, segment := range segments {
		if (segment == "articles" || segment == "read") && i+1 < len(segments) {
			return segments[i+1]
		}
	}

	return rawURL
}
