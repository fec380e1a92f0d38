package aggregate

import (
	"strings"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

const maxEvents = 50

// NewEvents builds the events aggregator. Duplicates are collapsed on
// title, venue, and calendar date so the same concert listed by a community
// calendar and a ticketing platform appears once; records are ordered
// soonest-first.
func NewEvents(ttl time.Duration, adapters ...source.Fetcher[entity.Event]) *Aggregator[entity.Event] {
	return New(Config[entity.Event]{
		Category:   "events",
		TTL:        ttl,
		MaxRecords: maxEvents,
		Key:        EventKey,
		Less: func(a, b entity.Event) bool {
			return a.StartsAt.Before(b.StartsAt)
		},
	}, adapters...)
}

// EventKey is the composite dedup key for events. Two records describing
// the same title at the same venue on the same calendar date are treated
// as one event regardless of which adapter produced them.
func EventKey(e entity.Event) string {
	if !e.Valid() {
		return ""
	}
	return strings.ToLower(e.Title) + "|" + strings.ToLower(e.Venue) + "|" + e.CalendarDate()
}
