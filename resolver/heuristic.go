// ABOUTME: This file implements the cheap pattern-matching fallback for embedded URLs
// ABOUTME: False negatives are fine; returning the aggregator's own URL is not
package resolver

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
)

var (
	// Whitelist of RFC 3986 URL characters: decoded payloads mix the URL
	// with raw bytes, so a negated class would bleed into them.
	embeddedURLPattern = regexp.MustCompile(`https?://[A-Za-z0-9._~:/?#@!$&'()*+,;=%-]+`)
	markerTokenPattern = regexp.MustCompile(`(?:` + legacyFormatMarker + `|` + currentFormatMarker + `)([A-Za-z0-9_-]+)`)
)

// redirectParamNames are query parameters commonly carrying a redirect
// target, in the order they are checked.
var redirectParamNames = []string{"url", "u", "link", "target", "redirect"}

// HeuristicExtractor scans identifiers and their container URLs for embedded
// publisher URLs without any network I/O.
type HeuristicExtractor struct {
	logger *slog.Logger
}

func NewHeuristicExtractor(logger *slog.Logger) *HeuristicExtractor {
	return &HeuristicExtractor{logger: logger}
}

func (h *HeuristicExtractor) Name() string {
	return "heuristic"
}

func (h *HeuristicExtractor) Attempt(_ context.Context, rc *ResolutionContext) (string, error) {
	if candidate := h.Extract(rc.SourceURL); candidate != "" {
		return candidate, nil
	}
	if rc.Identifier != rc.SourceURL {
		return h.Extract(rc.Identifier), nil
	}
	return "", nil
}

// Extract tries, in order: a redirect query parameter, a base64 decode of the
// input scanned for an embedded URL (standard then URL-safe alphabet), and
// finally a scan for marker-prefixed tokens inside the raw input. Returns ""
// when nothing passes candidate validation.
func (h *HeuristicExtractor) Extract(input string) string {
	if input == "" {
		return ""
	}

	if candidate := h.fromQueryParam(input); candidate != "" {
		return candidate
	}

	if candidate := scanDecoded(base64.StdEncoding, input); candidate != "" {
		return candidate
	}
	if candidate := scanDecoded(base64.URLEncoding, input); candidate != "" {
		return candidate
	}

	return h.fromMarkerTokens(input)
}

func (h *HeuristicExtractor) fromQueryParam(input string) string {
	parsed, err := url.Parse(input)
	if err != nil || parsed.Host == "" {
		return ""
	}

	query := parsed.Query()
	for _, name := range redirectParamNames {
		if value := query.Get(name); isValidCandidate(value) {
			h.logger.Debug("extracted url from query parameter", "param", name)
			return value
		}
	}
	return ""
}

// fromMarkerTokens looks for format-marker prefixed runs inside the raw
// input. The token after a legacy marker is itself base64, so decoding it
// can expose the embedded URL even when the whole input does not decode.
func (h *HeuristicExtractor) fromMarkerTokens(input string) string {
	for _, match := range markerTokenPattern.FindAllStringSubmatch(input, -1) {
		if candidate := scanDecoded(base64.URLEncoding, match[1]); candidate != "" {
			return candidate
		}
		if candidate := scanDecoded(base64.StdEncoding, match[1]); candidate != "" {
			return candidate
		}
	}
	return ""
}

// scanDecoded base64-decodes s with padding correction and returns the first
// embedded URL that passes candidate validation.
func scanDecoded(enc *base64.Encoding, s string) string {
	padded := strings.TrimRight(s, "=")
	if rem := len(padded) % 4; rem != 0 {
		padded += strings.Repeat("=", 4-rem)
	}

	raw, err := enc.DecodeString(padded)
	if err != nil {
		return ""
	}

	match := embeddedURLPattern.FindString(string(raw))
	if !isValidCandidate(match) {
		return ""
	}
	return match
}
