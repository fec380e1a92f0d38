package aggregate

import (
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

// NewWeather builds the weather aggregator. Weather is not merged across
// providers the way record lists are: each provider contributes at most one
// snapshot, so dedup keys on the provider name and no cross-provider
// ordering is imposed. Consumers typically take the first snapshot.
func NewWeather(ttl time.Duration, adapters ...source.Fetcher[entity.WeatherSnapshot]) *Aggregator[entity.WeatherSnapshot] {
	return New(Config[entity.WeatherSnapshot]{
		Category: "weather",
		TTL:      ttl,
		Key: func(w entity.WeatherSnapshot) string {
			return w.Source
		},
	}, adapters...)
}
