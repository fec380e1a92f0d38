package weather

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

const governmentName = "gov-forecast"

// GovernmentConfig configures the government forecast service adapter.
type GovernmentConfig struct {
	BaseURL string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Government fetches forecasts from the public government weather service.
// The service needs no credential but requires a two-step lookup: resolve
// the coordinate to a gridpoint, then fetch that gridpoint's forecast.
type Government struct {
	cfg   GovernmentConfig
	guard *source.Guard
	now   func() time.Time
}

// NewGovernment creates the adapter.
func NewGovernment(cfg GovernmentConfig) *Government {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Government{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(governmentName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (g *Government) Name() string { return governmentName }

// Fetch implements source.Fetcher.
func (g *Government) Fetch(ctx context.Context, q source.Query) source.Result[entity.WeatherSnapshot] {
	if !q.HasCoords {
		return source.Fail[entity.WeatherSnapshot](ErrNoCoordinates)
	}
	return source.Call(ctx, g.guard, governmentName, func(ctx context.Context) ([]entity.WeatherSnapshot, error) {
		return g.doFetch(ctx, q)
	})
}

type pointsPayload struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type gridForecastPayload struct {
	Properties struct {
		Periods []struct {
			Name            string  `json:"name"`
			StartTime       string  `json:"startTime"`
			Temperature     float64 `json:"temperature"`
			IsDaytime       bool    `json:"isDaytime"`
			WindSpeed       string  `json:"windSpeed"`
			ShortForecast   string  `json:"shortForecast"`
			RelativeHumidity struct {
				Value int `json:"value"`
			} `json:"relativeHumidity"`
		} `json:"periods"`
	} `json:"properties"`
}

func (g *Government) doFetch(ctx context.Context, q source.Query) ([]entity.WeatherSnapshot, error) {
	header := http.Header{}
	header.Set("Accept", "application/geo+json")
	header.Set("User-Agent", "localpulse (ops@localpulse.example)")

	// Step 1: coordinate to gridpoint.
	pointsURL := fmt.Sprintf("%s/points/%.4f,%.4f", g.cfg.BaseURL, q.Latitude, q.Longitude)
	var points pointsPayload
	if err := source.GetJSON(ctx, g.cfg.Client, pointsURL, header, &points); err != nil {
		return nil, fmt.Errorf("resolve gridpoint: %w", err)
	}
	if points.Properties.Forecast == "" {
		return nil, source.ErrMalformedPayload
	}

	// Step 2: gridpoint forecast.
	var grid gridForecastPayload
	if err := source.GetJSON(ctx, g.cfg.Client, points.Properties.Forecast, header, &grid); err != nil {
		return nil, fmt.Errorf("fetch gridpoint forecast: %w", err)
	}
	if len(grid.Properties.Periods) == 0 {
		return nil, source.ErrMalformedPayload
	}

	now := g.now()
	current := grid.Properties.Periods[0]
	snap := entity.WeatherSnapshot{
		ID:          fmt.Sprintf("%s:%.4f,%.4f", governmentName, q.Latitude, q.Longitude),
		Location:    q.Location,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		TempF:       current.Temperature,
		FeelsLikeF:  current.Temperature,
		Humidity:    current.RelativeHumidity.Value,
		Conditions:  current.ShortForecast,
		Source:      governmentName,
		LastUpdated: now,
		Verified:    true,
	}

	// Pair day/night periods into daily high/low entries.
	for _, p := range grid.Properties.Periods {
		startsAt, err := time.Parse(time.RFC3339, p.StartTime)
		if err != nil {
			continue
		}
		period := entity.ForecastPeriod{
			Name:       p.Name,
			StartsAt:   startsAt,
			Conditions: p.ShortForecast,
		}
		if p.IsDaytime {
			period.HighF = p.Temperature
		} else {
			period.LowF = p.Temperature
		}
		snap.Forecast = append(snap.Forecast, period)
	}
	return []entity.WeatherSnapshot{snap}, nil
}
