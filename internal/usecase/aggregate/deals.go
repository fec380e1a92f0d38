package aggregate

import (
	"strings"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

const maxDeals = 30

// NewDeals builds the deals aggregator. Offers dedupe on business, title,
// and discount, and are ordered soonest-expiring first; deals without an
// expiry sort last.
func NewDeals(ttl time.Duration, adapters ...source.Fetcher[entity.Deal]) *Aggregator[entity.Deal] {
	return New(Config[entity.Deal]{
		Category:   "deals",
		TTL:        ttl,
		MaxRecords: maxDeals,
		Key:        DealKey,
		Less: func(a, b entity.Deal) bool {
			switch {
			case a.ExpiresAt.IsZero():
				return false
			case b.ExpiresAt.IsZero():
				return true
			default:
				return a.ExpiresAt.Before(b.ExpiresAt)
			}
		},
	}, adapters...)
}

// DealKey is the composite dedup key for deals. The discount is part of
// the key so a business running two distinct promotions under the same
// title keeps both.
func DealKey(d entity.Deal) string {
	if !d.Valid() {
		return ""
	}
	return strings.ToLower(d.BusinessName) + "|" + strings.ToLower(d.Title) + "|" + strings.ToLower(d.Discount)
}
