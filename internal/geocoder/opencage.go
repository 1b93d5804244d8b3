package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arrival-guide/internal/models"
)

// OpenCageProvider resolves addresses through the OpenCage forward-geocoding
// API.
type OpenCageProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenCageProvider creates an OpenCage provider.
func NewOpenCageProvider(apiKey string) *OpenCageProvider {
	return &OpenCageProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.opencagedata.com/geocode/v1/json",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OpenCageProvider) Name() string { return "opencage" }

type openCageResponse struct {
	Results []struct {
		Formatted string `json:"formatted"`
		Geometry  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		// OpenCage confidence is an integer 1 (worst) to 10 (best).
		Confidence int `json:"confidence"`
		Components struct {
			Type         string `json:"_type"`
			City         string `json:"city"`
			Town         string `json:"town"`
			Village      string `json:"village"`
			Country      string `json:"country"`
			CountryCode  string `json:"country_code"`
			Postcode     string `json:"postcode"`
			Suburb       string `json:"suburb"`
			Neighborhood string `json:"neighbourhood"`
		} `json:"components"`
		Annotations struct {
			Timezone struct {
				Name string `json:"name"`
			} `json:"timezone"`
		} `json:"annotations"`
	} `json:"results"`
}

// Geocode resolves the address and normalizes OpenCage's response shape.
func (p *OpenCageProvider) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("geocoder: opencage API key not configured")
	}

	params := url.Values{}
	params.Add("q", address)
	params.Add("key", p.apiKey)
	params.Add("limit", "1")
	params.Add("no_annotations", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to create opencage request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to call opencage API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocoder: opencage API error (status %d): %s", resp.StatusCode, string(body))
	}

	var ocr openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocr); err != nil {
		return nil, fmt.Errorf("geocoder: failed to parse opencage response: %w", err)
	}

	if len(ocr.Results) == 0 {
		return nil, ErrNoResults
	}

	best := ocr.Results[0]
	city := best.Components.City
	if city == "" {
		city = best.Components.Town
	}
	if city == "" {
		city = best.Components.Village
	}
	neighborhood := best.Components.Neighborhood
	if neighborhood == "" {
		neighborhood = best.Components.Suburb
	}

	return &models.GeocodeResult{
		Lat:              best.Geometry.Lat,
		Lng:              best.Geometry.Lng,
		City:             city,
		Country:          best.Components.Country,
		CountryCode:      strings.ToUpper(best.Components.CountryCode),
		PostalCode:       best.Components.Postcode,
		Neighborhood:     neighborhood,
		Timezone:         best.Annotations.Timezone.Name,
		Confidence:       float64(best.Confidence) / 10.0,
		Accuracy:         openCageAccuracy(best.Components.Type),
		Source:           p.Name(),
		FormattedAddress: best.Formatted,
	}, nil
}

func openCageAccuracy(placeType string) models.Accuracy {
	switch placeType {
	case "building":
		return models.AccuracyRooftop
	case "road", "street":
		return models.AccuracyStreet
	case "city", "town", "village", "neighbourhood", "postcode":
		return models.AccuracyCity
	default:
		return models.AccuracyRegion
	}
}
