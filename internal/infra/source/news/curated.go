package news

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

const curatedName = "curated-feed"

// CuratedConfig configures the curated feed adapter.
type CuratedConfig struct {
	// FeedURL is the RSS/Atom feed carrying editor-picked local items.
	FeedURL string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Curated fetches editor-curated items from an RSS/Atom feed using the
// gofeed parser. Feeds are public, so there is no credential path; an
// unconfigured feed URL is treated the same as a missing credential.
type Curated struct {
	cfg   CuratedConfig
	guard *source.Guard
	now   func() time.Time
}

// NewCurated creates the adapter.
func NewCurated(cfg CuratedConfig) *Curated {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Curated{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(curatedName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (c *Curated) Name() string { return curatedName }

// Fetch implements source.Fetcher. The curated feed is location-agnostic:
// whoever runs the deployment points FeedURL at the feed for their area.
func (c *Curated) Fetch(ctx context.Context, _ source.Query) source.Result[entity.NewsItem] {
	if c.cfg.FeedURL == "" {
		return source.Fail[entity.NewsItem](source.ErrMissingCredential)
	}
	return source.Call(ctx, c.guard, curatedName, func(ctx context.Context) ([]entity.NewsItem, error) {
		return c.doFetch(ctx)
	})
}

func (c *Curated) doFetch(ctx context.Context) ([]entity.NewsItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "localpulse-bot"
	fp.Client = c.cfg.Client

	feed, err := fp.ParseURLWithContext(c.cfg.FeedURL, ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	items := make([]entity.NewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := entity.NewsItem{
			ID:          curatedName + ":" + it.Link,
			Title:       it.Title,
			Summary:     it.Description,
			URL:         it.Link,
			Source:      curatedName,
			LastUpdated: now,
			Verified:    true,
		}
		if it.PublishedParsed != nil {
			item.PublishedAt = *it.PublishedParsed
		}
		if len(it.Authors) > 0 && it.Authors[0] != nil {
			item.Author = it.Authors[0].Name
		}
		if it.Image != nil {
			item.ImageURL = it.Image.URL
		}
		if !item.Valid() {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
