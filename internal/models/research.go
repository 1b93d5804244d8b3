package models

import "time"

// TransportOption is a single public-transport connection from an airport to
// the city, as researched by the grounded model.
type TransportOption struct {
	Type      string `json:"type"`
	Route     string `json:"route"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
	Price     string `json:"price"`
}

// TaxiInfo holds taxi / ride-hail pricing for the airport-to-city leg.
type TaxiInfo struct {
	PriceRange string `json:"price_range"`
	Duration   string `json:"duration"`
}

// TransportInfo is the airport-transit research result. Available is false
// when research failed and the rest of the struct is the deterministic
// "information unavailable" fallback.
type TransportInfo struct {
	Options   []TransportOption `json:"options"`
	Taxi      *TaxiInfo         `json:"taxi,omitempty"`
	Available bool              `json:"available"`
}

// HighwayInfo is the road-access research result for a city.
type HighwayInfo struct {
	Highways        []string `json:"highways"`
	Tolls           bool     `json:"tolls"`
	LowEmissionZone bool     `json:"low_emission_zone"`
	Notes           string   `json:"notes,omitempty"`
	Available       bool     `json:"available"`
}

// TransportCacheEntry is the persisted research result for one city. The
// composite key is (City, CountryCode, AirportCode); AirportCode is the
// primary (nearest) airport only, empty when the city has none nearby.
// Either blob may be nil when only the other kind of research has run.
type TransportCacheEntry struct {
	City        string         `json:"city"`
	CountryCode string         `json:"country_code"`
	AirportCode string         `json:"airport_code"`
	Transport   *TransportInfo `json:"transport,omitempty"`
	Highway     *HighwayInfo   `json:"highway,omitempty"`
	ExpiresAt   time.Time      `json:"expires_at"`
}

// Expired reports whether the entry is past its TTL at the given instant.
// An expired entry is indistinguishable from an absent one to readers.
func (e *TransportCacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}
