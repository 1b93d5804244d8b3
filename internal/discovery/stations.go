package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"arrival-guide/internal/geo"
	"arrival-guide/internal/models"
)

// overpassElement is one node/way/relation in an Overpass response. Ways and
// relations carry their geometry center instead of lat/lon.
type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// position collapses way/relation geometry centers to a point.
func (e *overpassElement) position() (float64, float64) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon
	}
	return e.Lat, e.Lon
}

// StationFinder queries the collaborative map data for train and metro
// stations around a coordinate.
type StationFinder struct {
	endpoint   string
	httpClient *http.Client
}

// NewStationFinder creates a finder against the given Overpass endpoint.
func NewStationFinder(endpoint string) *StationFinder {
	return &StationFinder{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Find returns stations within radiusM of the coordinate, tagged train or
// metro, deduplicated by position and sorted ascending by distance. Failures
// degrade to an empty list.
func (f *StationFinder) Find(ctx context.Context, lat, lng float64, radiusM int) []models.Station {
	return WithRetry(ctx, "overpass-stations", func() ([]models.Station, error) {
		return f.query(ctx, lat, lng, radiusM)
	}, []models.Station{})
}

func (f *StationFinder) query(ctx context.Context, lat, lng float64, radiusM int) ([]models.Station, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node["railway"="station"](around:%d,%f,%f);
  way["railway"="station"](around:%d,%f,%f);
  relation["railway"="station"](around:%d,%f,%f);
  node["railway"="subway_entrance"](around:%d,%f,%f);
);
out center;`, radiusM, lat, lng, radiusM, lat, lng, radiusM, lat, lng, radiusM, lat, lng)

	elements, err := runOverpass(ctx, f.httpClient, f.endpoint, query)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	stations := make([]models.Station, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		elat, elon := el.position()
		// Collapse entrances, ways and relations of the same station to one
		// point-level entry.
		key := fmt.Sprintf("%s|%.4f|%.4f", name, elat, elon)
		if seen[key] {
			continue
		}
		seen[key] = true

		stations = append(stations, models.Station{
			Name:      name,
			Type:      stationType(el.Tags),
			Lat:       elat,
			Lon:       elon,
			DistanceM: geo.DistanceM(lat, lng, elat, elon),
			Lines:     stationLines(el.Tags),
		})
	}

	sort.Slice(stations, func(i, j int) bool {
		return stations[i].DistanceM < stations[j].DistanceM
	})

	return stations, nil
}

// stationType classifies a station as metro when the tags carry a subway
// marker, train otherwise.
func stationType(tags map[string]string) models.StationType {
	if tags["station"] == "subway" || tags["railway"] == "subway_entrance" || tags["subway"] == "yes" {
		return models.StationMetro
	}
	return models.StationTrain
}

// stationLines extracts line identifiers from ref-style tags.
func stationLines(tags map[string]string) []string {
	for _, tag := range []string{"ref", "line", "route_ref"} {
		if v := tags[tag]; v != "" {
			parts := strings.Split(v, ";")
			lines := make([]string, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					lines = append(lines, p)
				}
			}
			return lines
		}
	}
	return nil
}

// runOverpass posts a form-encoded Overpass QL query and decodes the element
// list. Shared by the station and parking finders.
func runOverpass(ctx context.Context, client *http.Client, endpoint, query string) ([]overpassElement, error) {
	form := url.Values{}
	form.Add("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to create overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to call overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, transientStatus(resp.StatusCode, string(body))
	}

	var or overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("discovery: failed to parse overpass response: %w", err)
	}

	return or.Elements, nil
}
