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

const retailName = "retail-offers"

// RetailConfig configures the retail offers API adapter.
type RetailConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Retail fetches in-store retail promotions.
type Retail struct {
	cfg   RetailConfig
	guard *source.Guard
	now   func() time.Time
}

// NewRetail creates the adapter.
func NewRetail(cfg RetailConfig) *Retail {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Retail{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(retailName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (r *Retail) Name() string { return retailName }

// Fetch implements source.Fetcher.
func (r *Retail) Fetch(ctx context.Context, q source.Query) source.Result[entity.Deal] {
	if r.cfg.APIKey == "" {
		slog.Info("retail offers key not configured, serving placeholder deals",
			slog.String("location", q.Location))
		return source.Result[entity.Deal]{
			Records: placeholderDeals(retailName, q.Location, r.now(), "Main Street Retailers", "Weekly Circular", "In-store promotions from the weekly flyer"),
			Err:     source.ErrMissingCredential,
		}
	}
	return source.Call(ctx, r.guard, retailName, func(ctx context.Context) ([]entity.Deal, error) {
		return r.doFetch(ctx, q)
	})
}

type retailPayload struct {
	Offers []struct {
		ID          string `json:"id"`
		Store       string `json:"store"`
		Headline    string `json:"headline"`
		Description string `json:"description"`
		Percent     int    `json:"percent_off"`
		URL         string `json:"url"`
		EndsAt      string `json:"ends_at"`
	} `json:"offers"`
}

func (r *Retail) doFetch(ctx context.Context, q source.Query) ([]entity.Deal, error) {
	u := fmt.Sprintf("%s/v3/offers?location=%s&radius_miles=%d",
		r.cfg.BaseURL, url.QueryEscape(q.Location), q.RadiusMiles)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	var payload retailPayload
	if err := source.GetJSON(ctx, r.cfg.Client, u, header, &payload); err != nil {
		return nil, err
	}

	now := r.now()
	deals := make([]entity.Deal, 0, len(payload.Offers))
	for _, raw := range payload.Offers {
		deal := entity.Deal{
			ID:           retailName + ":" + raw.ID,
			BusinessName: raw.Store,
			Title:        raw.Headline,
			Description:  raw.Description,
			URL:          raw.URL,
			Source:       retailName,
			LastUpdated:  now,
			Verified:     true,
		}
		if raw.Percent > 0 {
			deal.Discount = fmt.Sprintf("%d%% off", raw.Percent)
		}
		if expiresAt, err := time.Parse(time.RFC3339, raw.EndsAt); err == nil {
			deal.ExpiresAt = expiresAt
		}
		if !deal.Valid() {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}
