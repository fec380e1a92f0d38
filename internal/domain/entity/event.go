// Package entity defines the canonical record types produced by the
// aggregation layer. Each category (events, news, weather, deals, business)
// normalizes provider payloads into exactly one of these immutable shapes.
// Every record carries the name of the source adapter that produced it, the
// instant it was assembled, and a Verified flag that is true only for data
// taken straight from an authoritative API response. Synthesized placeholder
// records (emitted when a provider credential is not configured) always have
// Verified set to false.
package entity

import "time"

// Event represents a single upcoming happening near a location: a concert,
// a game, a community gathering.
type Event struct {
	ID          string
	Title       string
	Description string
	Venue       string
	Address     string
	StartsAt    time.Time
	EndsAt      time.Time
	Category    string
	TicketURL   string
	PriceRange  string
	Source      string
	LastUpdated time.Time
	Verified    bool
}

// Valid reports whether the event carries the minimum fields required for
// deduplication and display. Adapters drop invalid items instead of failing
// the whole batch.
func (e Event) Valid() bool {
	return e.Title != "" && !e.StartsAt.IsZero()
}

// CalendarDate returns the event's start date in YYYY-MM-DD form, which is
// the date component used in the cross-source dedup key.
func (e Event) CalendarDate() string {
	return e.StartsAt.Format("2006-01-02")
}
