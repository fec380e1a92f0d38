// Package events contains the source adapters that produce canonical Event
// records: a community events platform, a ticketing platform, and public
// league schedule feeds for three sports.
package events

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

const communityName = "community-events"

// CommunityConfig configures the community events platform adapter.
type CommunityConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Community fetches local happenings from a community event platform.
// Without a configured API key it degrades to clearly-tagged placeholder
// events (Verified=false) so an unconfigured integration surfaces as
// synthetic data instead of a hard error.
type Community struct {
	cfg   CommunityConfig
	guard *source.Guard
	now   func() time.Time
}

// NewCommunity creates the adapter. A nil Client gets the default finite
// timeout.
func NewCommunity(cfg CommunityConfig) *Community {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Community{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(communityName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (c *Community) Name() string { return communityName }

// Fetch implements source.Fetcher.
func (c *Community) Fetch(ctx context.Context, q source.Query) source.Result[entity.Event] {
	if c.cfg.APIKey == "" {
		slog.Info("community events key not configured, serving placeholder events",
			slog.String("location", q.Location))
		return source.Result[entity.Event]{
			Records: c.placeholders(q),
			Err:     source.ErrMissingCredential,
		}
	}
	return source.Call(ctx, c.guard, communityName, func(ctx context.Context) ([]entity.Event, error) {
		return c.doFetch(ctx, q)
	})
}

// communityPayload mirrors the provider's response envelope.
type communityPayload struct {
	Events []struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Venue       struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"venue"`
		StartsAt string `json:"starts_at"`
		EndsAt   string `json:"ends_at"`
		Category string `json:"category"`
		URL      string `json:"url"`
		Price    string `json:"price"`
	} `json:"events"`
}

func (c *Community) doFetch(ctx context.Context, q source.Query) ([]entity.Event, error) {
	u := fmt.Sprintf("%s/v2/events?near=%s&radius=%d&key=%s",
		c.cfg.BaseURL, url.QueryEscape(q.Location), q.RadiusMiles, url.QueryEscape(c.cfg.APIKey))

	var payload communityPayload
	if err := source.GetJSON(ctx, c.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	now := c.now()
	events := make([]entity.Event, 0, len(payload.Events))
	for _, raw := range payload.Events {
		startsAt, err := time.Parse(time.RFC3339, raw.StartsAt)
		if err != nil {
			// Drop the one malformed item, keep the batch.
			slog.Debug("skipping event with unparseable start time",
				slog.String("source", communityName),
				slog.String("id", raw.ID))
			continue
		}
		e := entity.Event{
			ID:          communityName + ":" + raw.ID,
			Title:       raw.Title,
			Description: raw.Description,
			Venue:       raw.Venue.Name,
			Address:     raw.Venue.Address,
			StartsAt:    startsAt,
			Category:    raw.Category,
			TicketURL:   raw.URL,
			PriceRange:  raw.Price,
			Source:      communityName,
			LastUpdated: now,
			Verified:    true,
		}
		if endsAt, err := time.Parse(time.RFC3339, raw.EndsAt); err == nil {
			e.EndsAt = endsAt
		}
		if !e.Valid() {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// placeholders synthesizes a small set of generic weekend events for the
// queried location. Every placeholder is tagged Verified=false.
func (c *Community) placeholders(q source.Query) []entity.Event {
	now := c.now()
	saturday := nextWeekday(now, time.Saturday).Add(10 * time.Hour)
	friday := nextWeekday(now, time.Friday).Add(19 * time.Hour)

	return []entity.Event{
		{
			ID:          communityName + ":placeholder-market",
			Title:       "Farmers Market",
			Description: fmt.Sprintf("Weekly farmers market in %s", q.Location),
			Venue:       "Town Square",
			StartsAt:    saturday,
			EndsAt:      saturday.Add(4 * time.Hour),
			Category:    "community",
			Source:      communityName,
			LastUpdated: now,
			Verified:    false,
		},
		{
			ID:          communityName + ":placeholder-music",
			Title:       "Live Music Night",
			Description: fmt.Sprintf("Local artists perform around %s", q.Location),
			Venue:       "Main Street",
			StartsAt:    friday,
			EndsAt:      friday.Add(3 * time.Hour),
			Category:    "music",
			Source:      communityName,
			LastUpdated: now,
			Verified:    false,
		},
	}
}

// nextWeekday returns midnight of the next occurrence of day, always in the
// future relative to t.
func nextWeekday(t time.Time, day time.Weekday) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	days := (int(day) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return midnight.AddDate(0, 0, days)
}
