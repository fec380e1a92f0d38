package deals

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

const localPageName = "local-deals-page"

// LocalPageConfig configures the local deals page scraper.
type LocalPageConfig struct {
	BaseURL string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// LocalPage scrapes a community deals page that publishes offers as HTML
// cards rather than an API. It uses goquery for extraction and the more
// conservative scraper breaker config, since a site redesign produces long
// runs of parse failures.
type LocalPage struct {
	cfg   LocalPageConfig
	guard *source.Guard
	now   func() time.Time
}

// NewLocalPage creates the adapter.
func NewLocalPage(cfg LocalPageConfig) *LocalPage {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &LocalPage{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ScraperConfig(localPageName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (l *LocalPage) Name() string { return localPageName }

// Fetch implements source.Fetcher.
func (l *LocalPage) Fetch(ctx context.Context, q source.Query) source.Result[entity.Deal] {
	return source.Call(ctx, l.guard, localPageName, func(ctx context.Context) ([]entity.Deal, error) {
		return l.doFetch(ctx, q)
	})
}

func (l *LocalPage) doFetch(ctx context.Context, q source.Query) ([]entity.Deal, error) {
	u := fmt.Sprintf("%s/deals/%s", l.cfg.BaseURL, url.PathEscape(strings.ToLower(q.Location)))

	body, err := source.GetBody(ctx, l.cfg.Client, u, nil)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrMalformedPayload, err)
	}

	now := l.now()
	var deals []entity.Deal
	doc.Find(".deal-card").Each(func(i int, s *goquery.Selection) {
		deal := entity.Deal{
			BusinessName: strings.TrimSpace(s.Find(".deal-business").Text()),
			Title:        strings.TrimSpace(s.Find(".deal-title").Text()),
			Description:  strings.TrimSpace(s.Find(".deal-description").Text()),
			Discount:     strings.TrimSpace(s.Find(".deal-discount").Text()),
			Source:       localPageName,
			LastUpdated:  now,
			Verified:     true,
		}
		if href, ok := s.Find("a.deal-link").Attr("href"); ok {
			deal.URL = href
		}
		if expires, ok := s.Attr("data-expires"); ok {
			if expiresAt, err := time.Parse("2006-01-02", expires); err == nil {
				deal.ExpiresAt = expiresAt
			}
		}
		deal.ID = fmt.Sprintf("%s:%s|%s", localPageName, deal.BusinessName, deal.Title)
		// Cards missing a business or title are navigation chrome the
		// selector accidentally matched; skip them.
		if !deal.Valid() {
			return
		}
		deals = append(deals, deal)
	})

	return deals, nil
}
