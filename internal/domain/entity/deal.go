package entity

import "time"

// Deal represents a discount, coupon, or limited-time offer tied to a
// nearby business.
type Deal struct {
	ID           string
	BusinessName string
	Title        string
	Description  string
	Discount     string
	Code         string
	URL          string
	ExpiresAt    time.Time
	Source       string
	LastUpdated  time.Time
	Verified     bool
}

// Valid reports whether the deal can participate in dedup and sorting.
func (d Deal) Valid() bool {
	return d.BusinessName != "" && d.Title != ""
}

// Expired reports whether the deal's offer window has closed at the given
// instant. Deals without an expiry never expire.
func (d Deal) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && d.ExpiresAt.Before(now)
}
