package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"arrival-guide/internal/models"
)

// GoogleProvider resolves addresses through the Google Geocoding API.
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleProvider creates a Google Geocoding API provider.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:     apiKey,
		baseURL:    "https://maps.googleapis.com/maps/api/geocode/json",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *GoogleProvider) Name() string { return "google" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves the address and normalizes Google's response shape.
func (p *GoogleProvider) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("geocoder: google API key not configured")
	}

	params := url.Values{}
	params.Add("address", address)
	params.Add("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to create google request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to call google geocoding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoder: google geocoding API error (status %d): %s", resp.StatusCode, string(body))
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("geocoder: failed to parse google response: %w", err)
	}

	if gr.Status != "OK" || len(gr.Results) == 0 {
		return nil, fmt.Errorf("%w (google status %s)", ErrNoResults, gr.Status)
	}

	best := gr.Results[0]
	result := &models.GeocodeResult{
		Lat:              best.Geometry.Location.Lat,
		Lng:              best.Geometry.Location.Lng,
		Accuracy:         googleAccuracy(best.Geometry.LocationType),
		Confidence:       googleConfidence(best.Geometry.LocationType),
		Source:           p.Name(),
		FormattedAddress: best.FormattedAddress,
	}

	for _, comp := range best.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				result.City = comp.LongName
			case "country":
				result.Country = comp.LongName
				result.CountryCode = comp.ShortName
			case "postal_code":
				result.PostalCode = comp.LongName
			case "neighborhood", "sublocality":
				if result.Neighborhood == "" {
					result.Neighborhood = comp.LongName
				}
			}
		}
	}

	return result, nil
}

func googleAccuracy(locationType string) models.Accuracy {
	switch locationType {
	case "ROOFTOP":
		return models.AccuracyRooftop
	case "RANGE_INTERPOLATED", "GEOMETRIC_CENTER":
		return models.AccuracyStreet
	case "APPROXIMATE":
		return models.AccuracyCity
	default:
		return models.AccuracyRegion
	}
}

func googleConfidence(locationType string) float64 {
	switch locationType {
	case "ROOFTOP":
		return 0.95
	case "RANGE_INTERPOLATED":
		return 0.8
	case "GEOMETRIC_CENTER":
		return 0.7
	case "APPROXIMATE":
		return 0.5
	default:
		return 0.3
	}
}
