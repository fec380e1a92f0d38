package events

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

// ScheduleConfig configures one league schedule feed adapter.
type ScheduleConfig struct {
	BaseURL string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Schedule fetches upcoming games from a public league schedule feed. The
// same adapter serves three sports; each sport is a separate instance with
// its own feed URL and limiter. No credential is required, so there is no
// placeholder path.
type Schedule struct {
	sport string
	cfg   ScheduleConfig
	guard *source.Guard
	now   func() time.Time
}

// NewHockeySchedule creates the hockey league feed adapter.
func NewHockeySchedule(cfg ScheduleConfig) *Schedule { return newSchedule("hockey", cfg) }

// NewBaseballSchedule creates the baseball league feed adapter.
func NewBaseballSchedule(cfg ScheduleConfig) *Schedule { return newSchedule("baseball", cfg) }

// NewFootballSchedule creates the football league feed adapter.
func NewFootballSchedule(cfg ScheduleConfig) *Schedule { return newSchedule("football", cfg) }

func newSchedule(sport string, cfg ScheduleConfig) *Schedule {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	name := sport + "-schedule"
	return &Schedule{
		sport: sport,
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(name))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (s *Schedule) Name() string { return s.sport + "-schedule" }

// Fetch implements source.Fetcher. Games are filtered to those hosted in the
// queried city, since league feeds are league-wide.
func (s *Schedule) Fetch(ctx context.Context, q source.Query) source.Result[entity.Event] {
	return source.Call(ctx, s.guard, s.Name(), func(ctx context.Context) ([]entity.Event, error) {
		return s.doFetch(ctx, q)
	})
}

// schedulePayload mirrors the league feed's game list.
type schedulePayload struct {
	Games []struct {
		ID       string `json:"id"`
		HomeTeam string `json:"home_team"`
		AwayTeam string `json:"away_team"`
		Venue    string `json:"venue"`
		City     string `json:"city"`
		StartsAt string `json:"starts_at"`
		Tickets  string `json:"tickets_url"`
	} `json:"games"`
}

func (s *Schedule) doFetch(ctx context.Context, q source.Query) ([]entity.Event, error) {
	u := fmt.Sprintf("%s/schedule/upcoming.json", s.cfg.BaseURL)

	var payload schedulePayload
	if err := source.GetJSON(ctx, s.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	wantCity := strings.ToLower(strings.TrimSpace(q.Location))
	now := s.now()
	events := make([]entity.Event, 0, len(payload.Games))
	for _, g := range payload.Games {
		if !strings.Contains(strings.ToLower(g.City), wantCity) {
			continue
		}
		startsAt, err := time.Parse(time.RFC3339, g.StartsAt)
		if err != nil {
			continue
		}
		e := entity.Event{
			ID:          s.Name() + ":" + g.ID,
			Title:       fmt.Sprintf("%s vs %s", g.HomeTeam, g.AwayTeam),
			Venue:       g.Venue,
			StartsAt:    startsAt,
			Category:    "sports",
			TicketURL:   g.Tickets,
			Source:      s.Name(),
			LastUpdated: now,
			Verified:    true,
		}
		if !e.Valid() {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
