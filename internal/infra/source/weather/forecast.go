// Package weather contains the source adapters that produce canonical
// WeatherSnapshot records: a commercial forecast API and the government
// forecast service. Weather adapters require coordinates; a query without
// them yields an empty result rather than a guess.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/resilience/circuitbreaker"
	"localpulse/pkg/ratelimit"
)

// ErrNoCoordinates indicates a weather fetch was attempted without lat/lng.
var ErrNoCoordinates = errors.New("weather query requires coordinates")

const forecastName = "forecast-api"

// ForecastConfig configures the commercial forecast API adapter.
type ForecastConfig struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Limiter
}

// Forecast fetches current conditions and a short-range forecast from a
// commercial weather provider.
type Forecast struct {
	cfg   ForecastConfig
	guard *source.Guard
	now   func() time.Time
}

// NewForecast creates the adapter.
func NewForecast(cfg ForecastConfig) *Forecast {
	if cfg.Client == nil {
		cfg.Client = source.NewHTTPClient(source.DefaultTimeout)
	}
	return &Forecast{
		cfg:   cfg,
		guard: source.NewGuard(cfg.Limiter, circuitbreaker.New(circuitbreaker.ProviderConfig(forecastName))),
		now:   time.Now,
	}
}

// Name implements source.Fetcher.
func (f *Forecast) Name() string { return forecastName }

// Fetch implements source.Fetcher.
func (f *Forecast) Fetch(ctx context.Context, q source.Query) source.Result[entity.WeatherSnapshot] {
	if !q.HasCoords {
		return source.Fail[entity.WeatherSnapshot](ErrNoCoordinates)
	}
	if f.cfg.APIKey == "" {
		return source.Fail[entity.WeatherSnapshot](source.ErrMissingCredential)
	}
	return source.Call(ctx, f.guard, forecastName, func(ctx context.Context) ([]entity.WeatherSnapshot, error) {
		return f.doFetch(ctx, q)
	})
}

type forecastPayload struct {
	Current struct {
		TempF      float64 `json:"temp_f"`
		FeelsLikeF float64 `json:"feelslike_f"`
		Humidity   int     `json:"humidity"`
		WindMPH    float64 `json:"wind_mph"`
		Condition  struct {
			Text string `json:"text"`
			Icon string `json:"icon"`
		} `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempF  float64 `json:"maxtemp_f"`
				MinTempF  float64 `json:"mintemp_f"`
				Condition struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (f *Forecast) doFetch(ctx context.Context, q source.Query) ([]entity.WeatherSnapshot, error) {
	u := fmt.Sprintf("%s/v1/forecast.json?q=%.4f,%.4f&days=3&key=%s",
		f.cfg.BaseURL, q.Latitude, q.Longitude, url.QueryEscape(f.cfg.APIKey))

	var payload forecastPayload
	if err := source.GetJSON(ctx, f.cfg.Client, u, nil, &payload); err != nil {
		return nil, err
	}

	now := f.now()
	snap := entity.WeatherSnapshot{
		ID:          fmt.Sprintf("%s:%.4f,%.4f", forecastName, q.Latitude, q.Longitude),
		Location:    q.Location,
		Latitude:    q.Latitude,
		Longitude:   q.Longitude,
		TempF:       payload.Current.TempF,
		FeelsLikeF:  payload.Current.FeelsLikeF,
		Humidity:    payload.Current.Humidity,
		WindMPH:     payload.Current.WindMPH,
		Conditions:  payload.Current.Condition.Text,
		Icon:        payload.Current.Condition.Icon,
		Source:      forecastName,
		LastUpdated: now,
		Verified:    true,
	}
	for _, day := range payload.Forecast.ForecastDay {
		startsAt, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		snap.Forecast = append(snap.Forecast, entity.ForecastPeriod{
			Name:       startsAt.Weekday().String(),
			StartsAt:   startsAt,
			HighF:      day.Day.MaxTempF,
			LowF:       day.Day.MinTempF,
			Conditions: day.Day.Condition.Text,
		})
	}
	if !snap.Valid() {
		return nil, source.ErrMalformedPayload
	}
	return []entity.WeatherSnapshot{snap}, nil
}
