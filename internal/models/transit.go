package models

// StationType distinguishes heavy rail from metro in discovery results.
type StationType string

const (
	StationTrain StationType = "train"
	StationMetro StationType = "metro"
)

// FeeStatus is the parking fee flag as tagged in the map data.
type FeeStatus string

const (
	FeeYes     FeeStatus = "yes"
	FeeNo      FeeStatus = "no"
	FeeUnknown FeeStatus = "unknown"
)

// Airport is a knowledge-graph airport hit near the resolved location.
type Airport struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"` // IATA
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

// Station is a train or metro station near the resolved location.
type Station struct {
	Name      string      `json:"name"`
	Type      StationType `json:"type"`
	Lat       float64     `json:"lat"`
	Lon       float64     `json:"lon"`
	DistanceM float64     `json:"distance_m"`
	Lines     []string    `json:"lines,omitempty"`
}

// ParkingZone is a parking area or garage near the resolved location.
type ParkingZone struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Fee       FeeStatus `json:"fee"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	DistanceM float64   `json:"distance_m"`
}

// ParkingInfo aggregates the parking discovery result.
// HasRegulatedParking is true when any zone is explicitly tagged fee=yes.
type ParkingInfo struct {
	HasRegulatedParking bool          `json:"has_regulated_parking"`
	Zones               []ParkingZone `json:"zones"`
}
