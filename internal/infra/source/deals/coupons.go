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

const couponsName = "coupon-api"

// CouponsConfig configures the coupon API adapter.
type CouponsConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Coupons fetches redeemable coupon codes scoped to a metro area.
type Coupons struct {
	cfg   CouponsConfig
	guard *source.Guard
	now   func() time.Time
}

// NewCoupons creates the adapter.
func NewCoupons(cfg CouponsConfig) *Coupons {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Coupons{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(couponsName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (c *Coupons) Name() string { return couponsName }

// Fetch implements source.Fetcher.
func (c *Coupons) Fetch(ctx context.Context, q source.Query) source.Result[entity.Deal] {
	if c.cfg.APIKey == "" {
		slog.Info("coupon API key not configured, serving placeholder deals",
			slog.String("location", q.Location))
		return source.Result[entity.Deal]{
			Records: placeholderDeals(couponsName, q.Location, c.now(), "Neighborhood Shops", "Seasonal Coupons", "Rotating coupon book offers"),
			Err:     source.ErrMissingCredential,
		}
	}
	return source.Call(ctx, c.guard, couponsName, func(ctx context.Context) ([]entity.Deal, error) {
		return c.doFetch(ctx, q)
	})
}

type couponsPayload struct {
	Coupons []struct {
		ID       string `json:"id"`
		Merchant string `json:"merchant"`
		Offer    string `json:"offer"`
		Code     string `json:"code"`
		Savings  string `json:"savings"`
		Link     string `json:"link"`
		Expires  string `json:"expires"`
	} `json:"coupons"`
}

func (c *Coupons) doFetch(ctx context.Context, q source.Query) ([]entity.Deal, error) {
	u := fmt.Sprintf("%s/coupons/search?area=%s&token=%s",
		c.cfg.BaseURL, url.QueryEscape(q.Location), url.QueryEscape(c.cfg.APIKey))

	var payload couponsPayload
	if err := source.GetJSON(ctx, c.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	now := c.now()
	deals := make([]entity.Deal, 0, len(payload.Coupons))
	for _, raw := range payload.Coupons {
		deal := entity.Deal{
			ID:           couponsName + ":" + raw.ID,
			BusinessName: raw.Merchant,
			Title:        raw.Offer,
			Discount:     raw.Savings,
			Code:         raw.Code,
			URL:          raw.Link,
			Source:       couponsName,
			LastUpdated:  now,
			Verified:     true,
		}
		// This provider reports date-only expirations.
		if expiresAt, err := time.Parse("2006-01-02", raw.Expires); err == nil {
			deal.ExpiresAt = expiresAt
		}
		if !deal.Valid() {
			continue
		}
		deals = append(deals, deal)
	}
	return deals, nil
}
