package discovery

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"arrival-guide/internal/geo"
	"arrival-guide/internal/models"
)

// ParkingFinder queries the collaborative map data for parking zones around a
// coordinate.
type ParkingFinder struct {
	endpoint   string
	httpClient *http.Client
}

// NewParkingFinder creates a finder against the given Overpass endpoint.
func NewParkingFinder(endpoint string) *ParkingFinder {
	return &ParkingFinder{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// emptyParking is the fallback when the query fails outright.
var emptyParking = models.ParkingInfo{HasRegulatedParking: false, Zones: []models.ParkingZone{}}

// Find returns the parking zones within radiusM of the coordinate. A zone
// explicitly tagged fee=yes marks the area as regulated. Failures degrade to
// an empty, unregulated result.
func (f *ParkingFinder) Find(ctx context.Context, lat, lng float64, radiusM int) models.ParkingInfo {
	return WithRetry(ctx, "overpass-parking", func() (models.ParkingInfo, error) {
		return f.query(ctx, lat, lng, radiusM)
	}, emptyParking)
}

func (f *ParkingFinder) query(ctx context.Context, lat, lng float64, radiusM int) (models.ParkingInfo, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"="parking"](around:%d,%f,%f);
  way["amenity"="parking"](around:%d,%f,%f);
  relation["amenity"="parking"](around:%d,%f,%f);
);
out center;`, radiusM, lat, lng, radiusM, lat, lng, radiusM, lat, lng)

	elements, err := runOverpass(ctx, f.httpClient, f.endpoint, query)
	if err != nil {
		return emptyParking, err
	}

	info := models.ParkingInfo{Zones: make([]models.ParkingZone, 0, len(elements))}
	for _, el := range elements {
		elat, elon := el.position()

		zone := models.ParkingZone{
			Name:      el.Tags["name"],
			Type:      el.Tags["parking"],
			Fee:       feeStatus(el.Tags["fee"]),
			Lat:       elat,
			Lon:       elon,
			DistanceM: geo.DistanceM(lat, lng, elat, elon),
		}
		if zone.Name == "" {
			zone.Name = "Unnamed parking"
		}
		if zone.Type == "" {
			zone.Type = "surface"
		}
		if zone.Fee == models.FeeYes {
			info.HasRegulatedParking = true
		}
		info.Zones = append(info.Zones, zone)
	}

	sort.Slice(info.Zones, func(i, j int) bool {
		return info.Zones[i].DistanceM < info.Zones[j].DistanceM
	})

	return info, nil
}

func feeStatus(tag string) models.FeeStatus {
	switch tag {
	case "yes":
		return models.FeeYes
	case "no":
		return models.FeeNo
	default:
		return models.FeeUnknown
	}
}
