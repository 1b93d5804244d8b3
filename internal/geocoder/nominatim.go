package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"arrival-guide/internal/models"
)

// NominatimProvider resolves addresses through the OSM Nominatim API. It is
// the free last-resort provider and needs no API key, but Nominatim's usage
// policy requires an identifying User-Agent.
type NominatimProvider struct {
	baseURL    string
	httpClient *http.Client
}

const nominatimUserAgent = "arrival-guide/1.0"

// NewNominatimProvider creates a Nominatim provider against the given base
// URL (the public instance or a self-hosted one).
func NewNominatimProvider(baseURL string) *NominatimProvider {
	return &NominatimProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *NominatimProvider) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Country      string `json:"country"`
		CountryCode  string `json:"country_code"`
		Postcode     string `json:"postcode"`
		Suburb       string `json:"suburb"`
		Neighborhood string `json:"neighbourhood"`
	} `json:"address"`
}

// Geocode resolves the address and normalizes Nominatim's response shape.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	params := url.Values{}
	params.Add("q", address)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to create nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to call nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoder: nominatim error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("geocoder: failed to parse nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}

	best := results[0]
	lat, err := strconv.ParseFloat(best.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: invalid nominatim latitude %q: %w", best.Lat, err)
	}
	lon, err := strconv.ParseFloat(best.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("geocoder: invalid nominatim longitude %q: %w", best.Lon, err)
	}

	city := best.Address.City
	if city == "" {
		city = best.Address.Town
	}
	if city == "" {
		city = best.Address.Village
	}
	neighborhood := best.Address.Neighborhood
	if neighborhood == "" {
		neighborhood = best.Address.Suburb
	}

	confidence := best.Importance
	if confidence > 1 {
		confidence = 1
	}

	return &models.GeocodeResult{
		Lat:              lat,
		Lng:              lon,
		City:             city,
		Country:          best.Address.Country,
		CountryCode:      strings.ToUpper(best.Address.CountryCode),
		PostalCode:       best.Address.Postcode,
		Neighborhood:     neighborhood,
		Confidence:       confidence,
		Accuracy:         nominatimAccuracy(best.Class, best.Type),
		Source:           p.Name(),
		FormattedAddress: best.DisplayName,
	}, nil
}

func nominatimAccuracy(class, placeType string) models.Accuracy {
	switch class {
	case "building":
		return models.AccuracyRooftop
	case "highway":
		return models.AccuracyStreet
	case "place":
		switch placeType {
		case "house", "address":
			return models.AccuracyRooftop
		case "city", "town", "village":
			return models.AccuracyCity
		}
	}
	if placeType == "administrative" {
		return models.AccuracyRegion
	}
	return models.AccuracyCity
}
