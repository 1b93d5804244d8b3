// Package service orchestrates the arrival-guide pipeline: geocode the
// address, discover transit around it, research what structured geodata
// cannot answer, then synthesize one structured guide.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"arrival-guide/internal/genai"
	"arrival-guide/internal/models"

	"github.com/rs/zerolog/log"
)

// Search radii for the discovery phase.
const (
	airportRadiusKm = 150.0
	stationRadiusM  = 1500
	parkingRadiusM  = 800
)

// Geocoder resolves a free-text address. Interface for dependency injection.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)
}

// AirportFinder lists airports around a coordinate, nearest first.
type AirportFinder interface {
	Find(ctx context.Context, lat, lng, radiusKm float64) []models.Airport
}

// StationFinder lists train/metro stations around a coordinate, nearest first.
type StationFinder interface {
	Find(ctx context.Context, lat, lng float64, radiusM int) []models.Station
}

// ParkingFinder reports parking zones around a coordinate.
type ParkingFinder interface {
	Find(ctx context.Context, lat, lng float64, radiusM int) models.ParkingInfo
}

// Researcher answers the questions geodata cannot. Both methods absorb their
// own failures into Available:false fallbacks.
type Researcher interface {
	AirportTransit(ctx context.Context, airport models.Airport, city, countryCode string, stations []models.Station) *models.TransportInfo
	Highways(ctx context.Context, city, country, countryCode, cacheAirportCode string) *models.HighwayInfo
}

// Generator is the final synthesis call.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (*genai.Response, error)
}

// GuideService runs the full pipeline.
type GuideService struct {
	geocoder   Geocoder
	airports   AirportFinder
	stations   StationFinder
	parking    ParkingFinder
	researcher Researcher
	gen        Generator
}

// NewGuideService wires the pipeline from its stages.
func NewGuideService(geocoder Geocoder, airports AirportFinder, stations StationFinder, parking ParkingFinder, researcher Researcher, gen Generator) *GuideService {
	return &GuideService{
		geocoder:   geocoder,
		airports:   airports,
		stations:   stations,
		parking:    parking,
		researcher: researcher,
		gen:        gen,
	}
}

// Generate produces the arrival guide for an address. Geocoding failure is
// the only error returned; every other stage degrades in place. A synthesis
// failure yields a guide with nil Instructions and no error, so the caller
// keeps the coordinates and discovery data and can offer a retry.
func (s *GuideService) Generate(ctx context.Context, address string, section models.Section) (*models.ArrivalGuide, error) {
	if address == "" {
		return nil, fmt.Errorf("service: address cannot be empty")
	}

	geocode, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("service: failed to geocode address: %w", err)
	}

	guide := &models.ArrivalGuide{Geocode: geocode}

	// Fan-out discovery. Each branch absorbs its own failure into a fallback
	// before the barrier, so a failing sibling never cancels the others.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		guide.Airports = s.airports.Find(ctx, geocode.Lat, geocode.Lng, airportRadiusKm)
	}()
	go func() {
		defer wg.Done()
		guide.Stations = s.stations.Find(ctx, geocode.Lat, geocode.Lng, stationRadiusM)
	}()
	go func() {
		defer wg.Done()
		guide.Parking = s.parking.Find(ctx, geocode.Lat, geocode.Lng, parkingRadiusM)
	}()
	wg.Wait()

	// One cache row per city, keyed by the primary (nearest) airport; empty
	// code when the city has none within range.
	primaryAirport := ""
	if len(guide.Airports) > 0 {
		primaryAirport = guide.Airports[0].Code
	}

	var transport *models.TransportInfo
	var highway *models.HighwayInfo

	wg.Add(2)
	go func() {
		defer wg.Done()
		if (section == models.SectionAll || section == models.SectionPlane) && len(guide.Airports) > 0 {
			transport = s.researcher.AirportTransit(ctx, guide.Airports[0], geocode.City, geocode.CountryCode, guide.Stations)
		}
	}()
	go func() {
		defer wg.Done()
		if section == models.SectionAll || section == models.SectionRoad {
			highway = s.researcher.Highways(ctx, geocode.City, geocode.Country, geocode.CountryCode, primaryAirport)
		}
	}()
	wg.Wait()

	guide.Instructions = s.synthesize(ctx, guide, transport, highway, section)
	return guide, nil
}

// synthesize merges everything into one generation call and parses the
// structured guide out of it. Returns nil on any failure.
func (s *GuideService) synthesize(ctx context.Context, guide *models.ArrivalGuide, transport *models.TransportInfo, highway *models.HighwayInfo, section models.Section) *models.ArrivalInstructions {
	prompt := buildSynthesisPrompt(guide, transport, highway, section)

	resp, err := s.gen.Generate(ctx, prompt, genai.GenerateOptions{
		Temperature:     0.3,
		MaxOutputTokens: 4096,
		JSONOutput:      true,
	})
	if err != nil {
		log.Error().Err(err).Str("city", guide.Geocode.City).Msg("service: synthesis call failed")
		return nil
	}

	var instructions models.ArrivalInstructions
	if !genai.ParseModelJSON(resp.Text, resp.FinishReason, &instructions) {
		log.Error().Str("city", guide.Geocode.City).Msg("service: failed to parse synthesized instructions")
		return nil
	}
	return &instructions
}

func buildSynthesisPrompt(guide *models.ArrivalGuide, transport *models.TransportInfo, highway *models.HighwayInfo, section models.Section) string {
	g := guide.Geocode

	var sb strings.Builder
	fmt.Fprintf(&sb, "Write arrival instructions for a guest traveling to %s (%s, %s).\n\n", g.FormattedAddress, g.City, g.Country)

	if len(guide.Airports) > 0 {
		sb.WriteString("Nearby airports:\n")
		for i, a := range guide.Airports {
			if i == 3 {
				break
			}
			fmt.Fprintf(&sb, "- %s (%s), %.1f km away\n", a.Name, a.Code, a.DistanceKm)
		}
	}
	if len(guide.Stations) > 0 {
		sb.WriteString("\nNearby stations:\n")
		for i, st := range guide.Stations {
			if i == 5 {
				break
			}
			lines := ""
			if len(st.Lines) > 0 {
				lines = " lines " + strings.Join(st.Lines, ", ")
			}
			fmt.Fprintf(&sb, "- %s (%s)%s, %.0f m away\n", st.Name, st.Type, lines, st.DistanceM)
		}
	}

	if guide.Parking.HasRegulatedParking {
		sb.WriteString("\nStreet parking around the address is regulated (paid zones).\n")
	}
	if len(guide.Parking.Zones) > 0 {
		fmt.Fprintf(&sb, "Closest parking: %s (%s), %.0f m away.\n", guide.Parking.Zones[0].Name, guide.Parking.Zones[0].Type, guide.Parking.Zones[0].DistanceM)
	}

	if transport != nil && transport.Available {
		blob, _ := json.Marshal(transport)
		fmt.Fprintf(&sb, "\nResearched airport transit options (JSON): %s\n", blob)
	}
	if highway != nil && highway.Available {
		blob, _ := json.Marshal(highway)
		fmt.Fprintf(&sb, "\nResearched road access (JSON): %s\n", blob)
	}

	sb.WriteString(`
Respond with ONLY a JSON object in this exact shape:
{
  "by_road": {"text": "...", "duration": "...", "price": "..."},
  "from_airport": {"text": "...", "duration": "...", "price": "..."},
  "from_train": {"text": "...", "duration": "...", "price": "..."},
  "nearby_transport": [{"type": "metro", "name": "...", "distance": "..."}],
  "parking": {"text": "...", "duration": "", "price": "..."}
}`)

	if field := sectionField(section); field != "" {
		fmt.Fprintf(&sb, "\n\nOnly fill the %q field. Set every other field to null.", field)
	}

	return sb.String()
}

// sectionField maps a regeneration section to its JSON field name.
func sectionField(section models.Section) string {
	switch section {
	case models.SectionRoad:
		return "by_road"
	case models.SectionPlane:
		return "from_airport"
	case models.SectionTrain:
		return "from_train"
	case models.SectionParking:
		return "parking"
	}
	return ""
}
