package entity

import "time"

// NewsItem represents one normalized news article or curated feed entry.
type NewsItem struct {
	ID          string
	Title       string
	Summary     string
	URL         string
	ImageURL    string
	PublishedAt time.Time
	Author      string
	Source      string
	LastUpdated time.Time
	Verified    bool
}

// Valid reports whether the item has enough substance to be merged.
func (n NewsItem) Valid() bool {
	return n.Title != "" && n.URL != ""
}
