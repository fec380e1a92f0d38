// Package business contains the source adapter that produces canonical
// BusinessListing records from a generic places-style business search API.
package business

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

const searchName = "business-search"

// SearchConfig configures the business search adapter.
type SearchConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Search fetches business listings near a location. Without a credential it
// serves a placeholder listing so downstream consumers render a populated,
// clearly-unverified section instead of an error.
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
func (s *Search) Fetch(ctx context.Context, q source.Query) source.Result[entity.BusinessListing] {
	if s.cfg.APIKey == "" {
		slog.Info("business search key not configured, serving placeholder listing",
			slog.String("location", q.Location))
		return source.Result[entity.BusinessListing]{
			Records: s.placeholders(q),
			Err:     source.ErrMissingCredential,
		}
	}
	return source.Call(ctx, s.guard, searchName, func(ctx context.Context) ([]entity.BusinessListing, error) {
		return s.doFetch(ctx, q)
	})
}

type searchPayload struct {
	Businesses []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Address     string  `json:"address"`
		Phone       string  `json:"phone"`
		URL         string  `json:"url"`
		Rating      float64 `json:"rating"`
		ReviewCount int     `json:"review_count"`
		IsOpenNow   bool    `json:"is_open_now"`
		Coordinates struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
	} `json:"businesses"`
}

func (s *Search) doFetch(ctx context.Context, q source.Query) ([]entity.BusinessListing, error) {
	u := fmt.Sprintf("%s/v3/businesses/search?location=%s&radius=%d",
		s.cfg.BaseURL, url.QueryEscape(q.Location), q.RadiusMiles)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	var payload searchPayload
	if err := source.GetJSON(ctx, s.cfg.Client, u, header, &payload); err != nil {
		return nil, err
	}

	now := s.now()
	listings := make([]entity.BusinessListing, 0, len(payload.Businesses))
	for _, raw := range payload.Businesses {
		listing := entity.BusinessListing{
			ID:          searchName + ":" + raw.ID,
			Name:        raw.Name,
			Category:    raw.Category,
			Address:     raw.Address,
			Phone:       raw.Phone,
			URL:         raw.URL,
			Rating:      raw.Rating,
			ReviewCount: raw.ReviewCount,
			Latitude:    raw.Coordinates.Latitude,
			Longitude:   raw.Coordinates.Longitude,
			OpenNow:     raw.IsOpenNow,
			Source:      searchName,
			LastUpdated: now,
			Verified:    true,
		}
		if !listing.Valid() {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *Search) placeholders(q source.Query) []entity.BusinessListing {
	now := s.now()
	return []entity.BusinessListing{
		{
			ID:          searchName + ":placeholder",
			Name:        "Local Businesses",
			Category:    "directory",
			Address:     q.Location,
			Source:      searchName,
			LastUpdated: now,
			Verified:    false,
		},
	}
}
