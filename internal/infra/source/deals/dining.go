// Package deals contains the source adapters that produce canonical Deal
// records from four independent discount providers: a restaurant deals API,
// a coupon API, a retail offers API, and a local deals page scraped from
// HTML. The three credentialed APIs degrade to clearly-tagged placeholder
// deals when unconfigured; the scraper needs no credential.
package deals

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

const diningName = "dining-deals"

// DiningConfig configures the restaurant deals API adapter.
type DiningConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Dining fetches restaurant specials and prix-fixe offers.
type Dining struct {
	cfg   DiningConfig
	guard *source.Guard
	now   func() time.Time
}

// NewDining creates the adapter.
func NewDining(cfg DiningConfig) *Dining {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Dining{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(diningName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (d *Dining) Name() string { return diningName }

// Fetch implements source.Fetcher.
func (d *Dining) Fetch(ctx context.Context, q source.Query) source.Result[entity.Deal] {
	if d.cfg.APIKey == "" {
		slog.Info("dining deals key not configured, serving placeholder deals",
			slog.String("location", q.Location))
		return source.Result[entity.Deal]{
			Records: placeholderDeals(diningName, q.Location, d.now(), "Local Bistro", "Happy Hour Specials", "Half-price appetizers 4-6pm"),
			Err:     source.ErrMissingCredential,
		}
	}
	return source.Call(ctx, d.guard, diningName, func(ctx context.Context) ([]entity.Deal, error) {
		return d.doFetch(ctx, q)
	})
}

type diningPayload struct {
	Specials []struct {
		ID         string `json:"id"`
		Restaurant string `json:"restaurant"`
		Title      string `json:"title"`
		Details    string `json:"details"`
		Discount   string `json:"discount"`
		URL        string `json:"url"`
		ValidUntil string `json:"valid_until"`
	} `json:"specials"`
}

func (d *Dining) doFetch(ctx context.Context, q source.Query) ([]entity.Deal, error) {
	u := fmt.Sprintf("%s/v1/specials?city=%s&radius=%d&api_key=%s",
		d.cfg.BaseURL, url.QueryEscape(q.Location), q.RadiusMiles, url.QueryEscape(d.cfg.APIKey))

	var payload diningPayload
	if err := source.GetJSON(ctx, d.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	now := d.now()
	deals := make([]entity.Deal, 0, len(payload.Specials))
	for _, raw := range payload.Specials {
		deal := entity.Deal{
			ID:           diningName + ":" + raw.ID,
			BusinessName: raw.Restaurant,
			Title:        raw.Title,
			Description:  raw.Details,
			Discount:     raw.Discount,
			URL:          raw.URL,
			Source:       diningName,
			LastUpdated:  now,
			Verified:     true,
		}
		if expiresAt, err := time.Parse(time.RFC3339, raw.ValidUntil); err == nil {
			deal.ExpiresAt = expiresAt
		}
		if !deal.Valid() {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}

// placeholderDeals synthesizes one unverified deal for an unconfigured
// provider so the category stays populated without faking provenance.
func placeholderDeals(providerName, location string, now time.Time, business, title, description string) []entity.Deal {
	return []entity.Deal{
		{
			ID:           providerName + ":placeholder",
			BusinessName: business,
			Title:        title,
			Description:  fmt.Sprintf("%s near %s", description, location),
			Discount:     "Varies",
			ExpiresAt:    now.AddDate(0, 0, 14),
			Source:       providerName,
			LastUpdated:  now,
			Verified:     false,
		},
	}
}
