package weather_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
	"localpulse/internal/infra/source/weather"
)

const (
	pittLat = 40.4406
	pittLng = -79.9959
)

func pittsburghQuery() source.Query {
	return source.Query{
		Location:  "Pittsburgh",
		Latitude:  pittLat,
		Longitude: pittLng,
		HasCoords: true,
	}
}

func TestForecast_Fetch_MapsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"current": {
				"temp_f": 58.5,
				"feelslike_f": 55.2,
				"humidity": 62,
				"wind_mph": 12.1,
				"condition": {"text": "Partly cloudy", "icon": "//cdn/day/116.png"}
			},
			"forecast": {
				"forecastday": [
					{"date": "2025-05-20", "day": {"maxtemp_f": 64, "mintemp_f": 48, "condition": {"text": "Sunny"}}},
					{"date": "2025-05-21", "day": {"maxtemp_f": 70, "mintemp_f": 52, "condition": {"text": "Rain"}}}
				]
			}
		}`))
	}))
	defer srv.Close()

	adapter := weather.NewForecast(weather.ForecastConfig{BaseURL: srv.URL, APIKey: "k"})
	res := adapter.Fetch(context.Background(), pittsburghQuery())

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	snap := res.Records[0]
	assert.Equal(t, 58.5, snap.TempF)
	assert.Equal(t, "Partly cloudy", snap.Conditions)
	assert.Len(t, snap.Forecast, 2)
	assert.Equal(t, "forecast-api", snap.Source)
	assert.True(t, snap.Verified)
}

func TestForecast_Fetch_RequiresCoordinates(t *testing.T) {
	adapter := weather.NewForecast(weather.ForecastConfig{BaseURL: "http://unused", APIKey: "k"})
	res := adapter.Fetch(context.Background(), source.Query{Location: "Pittsburgh"})

	assert.ErrorIs(t, res.Err, weather.ErrNoCoordinates)
	assert.Empty(t, res.Records)
}

func TestForecast_Fetch_MissingCredential(t *testing.T) {
	adapter := weather.NewForecast(weather.ForecastConfig{BaseURL: "http://unused"})
	res := adapter.Fetch(context.Background(), pittsburghQuery())

	assert.ErrorIs(t, res.Err, source.ErrMissingCredential)
	assert.Empty(t, res.Records)
}

func TestGovernment_Fetch_TwoStepLookup(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/geo+json")
		switch {
		case r.URL.Path == fmt.Sprintf("/points/%.4f,%.4f", pittLat, pittLng):
			fmt.Fprintf(w, `{"properties": {"forecast": "%s/gridpoints/PBZ/77,65/forecast"}}`, srv.URL)
		case r.URL.Path == "/gridpoints/PBZ/77,65/forecast":
			_, _ = w.Write([]byte(`{
				"properties": {
					"periods": [
						{"name": "This Afternoon", "startTime": "2025-05-20T14:00:00-04:00", "temperature": 63, "isDaytime": true, "shortForecast": "Mostly Sunny", "relativeHumidity": {"value": 48}},
						{"name": "Tonight", "startTime": "2025-05-20T20:00:00-04:00", "temperature": 47, "isDaytime": false, "shortForecast": "Clear", "relativeHumidity": {"value": 70}}
					]
				}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	adapter := weather.NewGovernment(weather.GovernmentConfig{BaseURL: srv.URL})
	res := adapter.Fetch(context.Background(), pittsburghQuery())

	require.NoError(t, res.Err)
	require.Len(t, res.Records, 1)
	snap := res.Records[0]
	assert.Equal(t, float64(63), snap.TempF)
	assert.Equal(t, "Mostly Sunny", snap.Conditions)
	assert.Equal(t, "gov-forecast", snap.Source)
	require.Len(t, snap.Forecast, 2)
	assert.Equal(t, float64(63), snap.Forecast[0].HighF)
	assert.Equal(t, float64(47), snap.Forecast[1].LowF)
}

func TestGovernment_Fetch_EmptyPeriodsIsMalformed(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/forecast" {
			_, _ = w.Write([]byte(`{"properties": {"periods": []}}`))
			return
		}
		fmt.Fprintf(w, `{"properties": {"forecast": "%s/forecast"}}`, srv.URL)
	}))
	defer srv.Close()

	adapter := weather.NewGovernment(weather.GovernmentConfig{BaseURL: srv.URL})
	res := adapter.Fetch(context.Background(), pittsburghQuery())

	assert.ErrorIs(t, res.Err, source.ErrMalformedPayload)
	assert.Empty(t, res.Records)
}

var _ source.Fetcher[entity.WeatherSnapshot] = (*weather.Forecast)(nil)
var _ source.Fetcher[entity.WeatherSnapshot] = (*weather.Government)(nil)
