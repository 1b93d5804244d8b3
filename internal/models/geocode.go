package models

// Accuracy is the coarse precision bucket reported by a geocoding provider.
// Ordering matters for trust decisions: rooftop > street > city > region.
type Accuracy string

const (
	AccuracyRooftop Accuracy = "rooftop"
	AccuracyStreet  Accuracy = "street"
	AccuracyCity    Accuracy = "city"
	AccuracyRegion  Accuracy = "region"
)

// GeocodeResult is the canonical, provider-independent result of resolving a
// free-text address. Confidence and Accuracy are provider-reported and must be
// passed through untouched by every downstream consumer.
type GeocodeResult struct {
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	CountryCode      string   `json:"country_code"`
	PostalCode       string   `json:"postal_code,omitempty"`
	Neighborhood     string   `json:"neighborhood,omitempty"`
	Timezone         string   `json:"timezone"`
	Confidence       float64  `json:"confidence"`
	Accuracy         Accuracy `json:"accuracy"`
	Source           string   `json:"source"`
	FormattedAddress string   `json:"formatted_address"`
}

// ValidationResult reports whether a geocode result plausibly matches the
// address the user typed. It is derived on every request and never persisted.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Confidence  float64  `json:"confidence"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions,omitempty"`
}
