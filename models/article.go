package models

import (
	"time"
)

// Article is a crawled publisher article ready for storage.
type Article struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Content     string    `db:"content"`
	URL         string    `db:"url"`
	SourceURL   string    `db:"source_url"`
	PublishedAt time.Time `db:"published_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// FeedItem is one entry from the aggregator's RSS output. Link is the opaque
// redirect URL, not the publisher URL.
type FeedItem struct {
	Title       string
	Link        string
	GUID        string
	PublishedAt time.Time
}
