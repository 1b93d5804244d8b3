package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"time"

	"arrival-guide/internal/geo"
	"arrival-guide/internal/models"

	"github.com/rs/zerolog/log"
)

// AirportFinder queries the Wikidata knowledge graph for airports with an
// IATA code around a coordinate.
type AirportFinder struct {
	endpoint   string
	httpClient *http.Client
}

// NewAirportFinder creates a finder against the given SPARQL endpoint.
func NewAirportFinder(endpoint string) *AirportFinder {
	return &AirportFinder{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// wktPointRe parses the well-known-text "Point(lon lat)" coordinate binding.
var wktPointRe = regexp.MustCompile(`Point\(([-0-9.]+) ([-0-9.]+)\)`)

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// Find returns airports carrying an IATA code within radiusKm of the
// coordinate, sorted ascending by distance. Failures degrade to an empty
// list via the shared retry wrapper.
func (f *AirportFinder) Find(ctx context.Context, lat, lng, radiusKm float64) []models.Airport {
	return WithRetry(ctx, "wikidata-airports", func() ([]models.Airport, error) {
		return f.query(ctx, lat, lng, radiusKm)
	}, []models.Airport{})
}

func (f *AirportFinder) query(ctx context.Context, lat, lng, radiusKm float64) ([]models.Airport, error) {
	sparql := fmt.Sprintf(`SELECT ?item ?itemLabel ?iata ?coords ?cityLabel WHERE {
  SERVICE wikibase:around {
    ?item wdt:P625 ?coords .
    bd:serviceParam wikibase:center "Point(%f %f)"^^geo:wktLiteral .
    bd:serviceParam wikibase:radius "%f" .
  }
  ?item wdt:P31/wdt:P279* wd:Q1248784 .
  ?item wdt:P238 ?iata .
  OPTIONAL { ?item wdt:P131 ?city . }
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en" . }
}`, lng, lat, radiusKm)

	params := url.Values{}
	params.Add("query", sparql)
	params.Add("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to create sparql request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", "arrival-guide/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to call sparql endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, transientStatus(resp.StatusCode, string(body))
	}

	var sr sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("discovery: failed to parse sparql response: %w", err)
	}

	seen := make(map[string]bool)
	airports := make([]models.Airport, 0, len(sr.Results.Bindings))
	for _, binding := range sr.Results.Bindings {
		iata := binding["iata"].Value
		if iata == "" || seen[iata] {
			continue
		}

		m := wktPointRe.FindStringSubmatch(binding["coords"].Value)
		if m == nil {
			log.Warn().Str("coords", binding["coords"].Value).Msg("discovery: unparseable WKT point, skipping airport")
			continue
		}
		lon, errLon := strconv.ParseFloat(m[1], 64)
		alat, errLat := strconv.ParseFloat(m[2], 64)
		if errLon != nil || errLat != nil {
			continue
		}

		seen[iata] = true
		airports = append(airports, models.Airport{
			Name:       binding["itemLabel"].Value,
			Code:       iata,
			City:       binding["cityLabel"].Value,
			Lat:        alat,
			Lon:        lon,
			DistanceKm: geo.DistanceKm(lat, lng, alat, lon),
		})
	}

	sort.Slice(airports, func(i, j int) bool {
		return airports[i].DistanceKm < airports[j].DistanceKm
	})

	return airports, nil
}
