package aggregate

import (
	"strings"
	"time"

	"localpulse/internal/domain/entity"
	"localpulse/internal/infra/source"
)

const maxBusinesses = 25

// NewBusiness builds the business-listing aggregator. Listings dedupe on
// name and address and are ordered alphabetically by name.
func NewBusiness(ttl time.Duration, adapters ...source.Fetcher[entity.BusinessListing]) *Aggregator[entity.BusinessListing] {
	return New(Config[entity.BusinessListing]{
		Category:   "business",
		TTL:        ttl,
		MaxRecords: maxBusinesses,
		Key:        BusinessKey,
		Less: func(a, b entity.BusinessListing) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		},
	}, adapters...)
}

// BusinessKey is the composite dedup key for business listings. Chains are
// disambiguated by address.
func BusinessKey(b entity.BusinessListing) string {
	if !b.Valid() {
		return ""
	}
	return strings.ToLower(b.Name) + "|" + strings.ToLower(b.Address)
}
