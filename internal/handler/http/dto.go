package http

import (
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/usecase/location"
)

// EventDTO is the wire shape of one event record.
type EventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	Address     string    `json:"address,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at,omitzero"`
	Category    string    `json:"category,omitempty"`
	URL         string    `json:"url,omitempty"`
	Price       string    `json:"price,omitempty"`
	Source      string    `json:"source"`
	Verified    bool      `json:"verified"`
}

// NewsDTO is the wire shape of one news item.
type NewsDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Author      string    `json:"author,omitempty"`
	Source      string    `json:"source"`
	Verified    bool      `json:"verified"`
}

// WeatherDTO is the wire shape of one provider weather snapshot.
type WeatherDTO struct {
	Location   string        `json:"location,omitempty"`
	TempF      float64       `json:"temp_f"`
	FeelsLikeF float64       `json:"feels_like_f,omitempty"`
	Humidity   int           `json:"humidity,omitempty"`
	WindMPH    float64       `json:"wind_mph,omitempty"`
	Conditions string        `json:"conditions"`
	Icon       string        `json:"icon,omitempty"`
	Forecast   []ForecastDTO `json:"forecast,omitempty"`
	Source     string        `json:"source"`
	Verified   bool          `json:"verified"`
}

// ForecastDTO is one short-range forecast period.
type ForecastDTO struct {
	Name       string    `json:"name"`
	StartsAt   time.Time `json:"starts_at,omitzero"`
	HighF      float64   `json:"high_f"`
	LowF       float64   `json:"low_f"`
	Conditions string    `json:"conditions,omitempty"`
}

// DealDTO is the wire shape of one deal record.
type DealDTO struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"business_name"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Discount     string    `json:"discount,omitempty"`
	Code         string    `json:"code,omitempty"`
	URL          string    `json:"url,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitzero"`
	Source       string    `json:"source"`
	Verified     bool      `json:"verified"`
}

// BusinessDTO is the wire shape of one business listing.
type BusinessDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category,omitempty"`
	Address     string  `json:"address,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	URL         string  `json:"url,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`
	OpenNow     bool    `json:"open_now,omitempty"`
	Source      string  `json:"source"`
	Verified    bool    `json:"verified"`
}

// SnapshotDTO is the combined location response. Weather is omitted when
// no coordinates were supplied or the weather fetch failed.
type SnapshotDTO struct {
	Location    string      `json:"location"`
	Events      []EventDTO  `json:"events"`
	News        []NewsDTO   `json:"news"`
	Deals       []DealDTO   `json:"deals"`
	Weather     *WeatherDTO `json:"weather,omitempty"`
	GeneratedAt time.Time   `json:"generated_at"`
}

func toEventDTO(e entity.Event) EventDTO {
	return EventDTO{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		Address:     e.Address,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Category:    e.Category,
		URL:         e.TicketURL,
		Price:       e.PriceRange,
		Source:      e.Source,
		Verified:    e.Verified,
	}
}

func toNewsDTO(n entity.NewsItem) NewsDTO {
	return NewsDTO{
		ID:          n.ID,
		Title:       n.Title,
		Summary:     n.Summary,
		URL:         n.URL,
		ImageURL:    n.ImageURL,
		PublishedAt: n.PublishedAt,
		Author:      n.Author,
		Source:      n.Source,
		Verified:    n.Verified,
	}
}

func toWeatherDTO(w entity.WeatherSnapshot) WeatherDTO {
	dto := WeatherDTO{
		Location:   w.Location,
		TempF:      w.TempF,
		FeelsLikeF: w.FeelsLikeF,
		Humidity:   w.Humidity,
		WindMPH:    w.WindMPH,
		Conditions: w.Conditions,
		Icon:       w.Icon,
		Source:     w.Source,
		Verified:   w.Verified,
	}
	for _, p := range w.Forecast {
		dto.Forecast = append(dto.Forecast, ForecastDTO{
			Name:       p.Name,
			StartsAt:   p.StartsAt,
			HighF:      p.HighF,
			LowF:       p.LowF,
			Conditions: p.Conditions,
		})
	}
	return dto
}

func toDealDTO(d entity.Deal) DealDTO {
	return DealDTO{
		ID:           d.ID,
		BusinessName: d.BusinessName,
		Title:        d.Title,
		Description:  d.Description,
		Discount:     d.Discount,
		Code:         d.Code,
		URL:          d.URL,
		ExpiresAt:    d.ExpiresAt,
		Source:       d.Source,
		Verified:     d.Verified,
	}
}

func toBusinessDTO(b entity.BusinessListing) BusinessDTO {
	return BusinessDTO{
		ID:          b.ID,
		Name:        b.Name,
		Category:    b.Category,
		Address:     b.Address,
		Phone:       b.Phone,
		URL:         b.URL,
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
		OpenNow:     b.OpenNow,
		Source:      b.Source,
		Verified:    b.Verified,
	}
}

func toSnapshotDTO(snap location.Snapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Location:    snap.Location,
		Events:      make([]EventDTO, 0, len(snap.Events)),
		News:        make([]NewsDTO, 0, len(snap.News)),
		Deals:       make([]DealDTO, 0, len(snap.Deals)),
		GeneratedAt: snap.GeneratedAt,
	}
	for _, e := range snap.Events {
		dto.Events = append(dto.Events, toEventDTO(e))
	}
	for _, n := range snap.News {
		dto.News = append(dto.News, toNewsDTO(n))
	}
	for _, d := range snap.Deals {
		dto.Deals = append(dto.Deals, toDealDTO(d))
	}
	if snap.Weather != nil {
		w := toWeatherDTO(*snap.Weather)
		dto.Weather = &w
	}
	return dto
}

func mapSlice[T any, D any](in []T, f func(T) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
