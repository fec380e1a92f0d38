package entity

import "time"

// WeatherSnapshot represents current-plus-forecast conditions for one
// coordinate pair as reported by a single provider.
type WeatherSnapshot struct {
	ID          string
	Location    string
	Latitude    float64
	Longitude   float64
	TempF       float64
	FeelsLikeF  float64
	Humidity    int
	WindMPH     float64
	Conditions  string
	Icon        string
	Forecast    []ForecastPeriod
	Source      string
	LastUpdated time.Time
	Verified    bool
}

// ForecastPeriod is one named stretch of a short-range forecast
// ("Tonight", "Tuesday", ...).
type ForecastPeriod struct {
	Name       string
	StartsAt   time.Time
	HighF      float64
	LowF       float64
	Conditions string
}

// Valid reports whether the snapshot describes a real observation.
func (w WeatherSnapshot) Valid() bool {
	return w.Conditions != "" || len(w.Forecast) > 0
}
