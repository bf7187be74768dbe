// ABOUTME: This file tests candidate validation and identifier extraction helpers
// ABOUTME: Also hosts the shared test logger for the resolver package
package resolver

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestIsValidCandidate(t *testing.T) {
	tests := map[string]struct {
		candidate string
		want      bool
	}{
		"should accept a publisher https url": {
			candidate: "https://example.com/story",
			want:      true,
		},
		"should accept a plain http url": {
			candidate: "http://example.com/story",
			want:      true,
		},
		"should reject the empty string": {
			candidate: "",
			want:      false,
		},
		"should reject non-http schemes": {
			candidate: "ftp://example.com/story",
			want:      false,
		},
		"should reject the aggregator's own domain": {
			candidate: "https://news.google.com/articles/abc",
			want:      false,
		},
		"should reject urls merely mentioning the aggregator": {
			candidate: "https://evil.test/?next=news.google.com",
			want:      false,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, isValidCandidate(tc.candidate))
		})
	}
}

func TestArticleIDFromURL(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"should extract the id from an rss articles link": {
			input: "https://news.google.com/rss/articles/CBMiabc123?oc=5",
			want:  "CBMiabc123",
		},
		"should extract the id from a read link": {
			input: "https://news.google.com/read/AU_yqLxyz",
			want:  "AU_yqLxyz",
		},
		"should pass through a bare identifier": {
			input: "CBMiabc123",
			want:  "CBMiabc123",
		},
		"should pass through urls without an articles segment": {
			input: "https://news.google.com/topstories",
			want:  "https://news.google.com/topstories",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, articleIDFromURL(tc.input))
		})
	}
}
