package events

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

const ticketingName = "ticketing"

// TicketingConfig configures the ticketing platform adapter.
type TicketingConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Ticketing fetches ticketed events (concerts, shows, games) from a
// ticketing platform's discovery API. Without a credential it contributes
// nothing: the category is still served by the other event adapters.
type Ticketing struct {
	cfg   TicketingConfig
	guard *source.Guard
	now   func() time.Time
}

// NewTicketing creates the adapter.
func NewTicketing(cfg TicketingConfig) *Ticketing {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Ticketing{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(ticketingName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (t *Ticketing) Name() string { return ticketingName }

// Fetch implements source.Fetcher.
func (t *Ticketing) Fetch(ctx context.Context, q source.Query) source.Result[entity.Event] {
	if t.cfg.APIKey == "" {
		return source.Fail[entity.Event](source.ErrMissingCredential)
	}
	return source.Call(ctx, t.guard, ticketingName, func(ctx context.Context) ([]entity.Event, error) {
		return t.doFetch(ctx, q)
	})
}

// ticketingPayload mirrors the discovery API's envelope. Only the fields the
// canonical shape needs are decoded.
type ticketingPayload struct {
	Embedded struct {
		Events []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			URL   string `json:"url"`
			Dates struct {
				Start struct {
					DateTime string `json:"dateTime"`
				} `json:"start"`
			} `json:"dates"`
			Classifications []struct {
				Segment struct {
					Name string `json:"name"`
				} `json:"segment"`
			} `json:"classifications"`
			PriceRanges []struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"priceRanges"`
			Embedded struct {
				Venues []struct {
					Name    string `json:"name"`
					Address struct {
						Line1 string `json:"line1"`
					} `json:"address"`
				} `json:"venues"`
			} `json:"_embedded"`
		} `json:"events"`
	} `json:"_embedded"`
}

func (t *Ticketing) doFetch(ctx context.Context, q source.Query) ([]entity.Event, error) {
	u := fmt.Sprintf("%s/discovery/v2/events?city=%s&radius=%d&unit=miles&apikey=%s",
		t.cfg.BaseURL, url.QueryEscape(q.Location), q.RadiusMiles, url.QueryEscape(t.cfg.APIKey))

	var payload ticketingPayload
	if err := source.GetJSON(ctx, t.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	now := t.now()
	events := make([]entity.Event, 0, len(payload.Embedded.Events))
	for _, raw := range payload.Embedded.Events {
		startsAt, err := time.Parse(time.RFC3339, raw.Dates.Start.DateTime)
		if err != nil {
			continue
		}
		e := entity.Event{
			ID:          ticketingName + ":" + raw.ID,
			Title:       raw.Name,
			StartsAt:    startsAt,
			TicketURL:   raw.URL,
			Source:      ticketingName,
			LastUpdated: now,
			Verified:    true,
		}
		if len(raw.Classifications) > 0 {
			e.Category = raw.Classifications[0].Segment.Name
		}
		if len(raw.Embedded.Venues) > 0 {
			e.Venue = raw.Embedded.Venues[0].Name
			e.Address = raw.Embedded.Venues[0].Address.Line1
		}
		if len(raw.PriceRanges) > 0 {
			e.PriceRange = fmt.Sprintf("$%.0f-$%.0f", raw.PriceRanges[0].Min, raw.PriceRanges[0].Max)
		}
		if !e.Valid() {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
