// Package news contains the source adapters that produce canonical NewsItem
// records: a general news search API and a curated RSS/Atom feed.
package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

const searchName = "news-search"

// SearchConfig configures the news search API adapter.
type SearchConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Search fetches recent articles mentioning the queried location from a
// general news search API.
type Search struct {
	cfg   SearchConfig
	guard *source.Guard
	now   func() time.Time
}

// NewSearch creates the adapter.
func NewSearch(cfg SearchConfig) *Search {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Search{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(searchName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (s *Search) Name() string { return searchName }

// Fetch implements source.Fetcher.
func (s *Search) Fetch(ctx context.Context, q source.Query) source.Result[entity.NewsItem] {
	if s.cfg.APIKey == "" {
		return source.Fail[entity.NewsItem](source.ErrMissingCredential)
	}
	return source.Call(ctx, s.guard, searchName, func(ctx context.Context) ([]entity.NewsItem, error) {
		return s.doFetch(ctx, q)
	})
}

type searchPayload struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Author      string `json:"author"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (s *Search) doFetch(ctx context.Context, q source.Query) ([]entity.NewsItem, error) {
	u := fmt.Sprintf("%s/v2/everything?q=%s&sortBy=publishedAt&pageSize=40",
		s.cfg.BaseURL, url.QueryEscape(q.Location))

	header := http.Header{}
	header.Set("X-Api-Key", s.cfg.APIKey)

	var payload searchPayload
	if err := source.GetJSON(ctx, s.cfg.Client, u, header, &payload); err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]entity.NewsItem, 0, len(payload.Articles))
	for _, raw := range payload.Articles {
		item := entity.NewsItem{
			ID:          searchName + ":" + raw.URL,
			Title:       raw.Title,
			Summary:     raw.Description,
			URL:         raw.URL,
			ImageURL:    raw.URLToImage,
			Author:      raw.Author,
			Source:      searchName,
			LastUpdated: now,
			Verified:    true,
		}
		if publishedAt, err := time.Parse(time.RFC3339, raw.PublishedAt); err == nil {
			item.PublishedAt = publishedAt
		}
		if !item.Valid() {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
