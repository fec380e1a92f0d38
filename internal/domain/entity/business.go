package entity

import "time"

// BusinessListing represents one normalized result from a generic business
// search provider.
type BusinessListing struct {
	ID          string
	Name        string
	Category    string
	Address     string
	Phone       string
	URL         string
	Rating      float64
	ReviewCount int
	Latitude    float64
	Longitude   float64
	OpenNow     bool
	Source      string
	LastUpdated time.Time
	Verified    bool
}

// Valid reports whether the listing identifies a concrete business.
func (b BusinessListing) Valid() bool {
	return b.Name != ""
}
