package aggregate

import (
	"strings"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

const maxNews = 40

// NewNews builds the news aggregator. Articles dedupe on title and source
// and are ordered newest-first.
func NewNews(ttl time.Duration, adapters ...source.Fetcher[entity.NewsItem]) *Aggregator[entity.NewsItem] {
	return New(Config[entity.NewsItem]{
		Category:   "news",
		TTL:        ttl,
		MaxRecords: maxNews,
		Key:        NewsKey,
		Less: func(a, b entity.NewsItem) bool {
			return a.PublishedAt.After(b.PublishedAt)
		},
	}, adapters...)
}

// NewsKey is the composite dedup key for news items. The source name is
// part of the key: the same headline syndicated by two outlets is two
// distinct records, but the same outlet reaching us through two adapters
// collapses to one.
func NewsKey(n entity.NewsItem) string {
	if !n.Valid() {
		return ""
	}
	return strings.ToLower(n.Title) + "|" + strings.ToLower(n.Source)
}
