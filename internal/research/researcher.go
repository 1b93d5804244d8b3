// Package research fills the knowledge gaps structured geodata cannot answer
// (taxi prices, transit frequency, tolls) with search-grounded generative
// calls, cached per city so repeated requests do not re-run the model.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arrival-guide/internal/genai"
	"arrival-guide/internal/models"
	"arrival-guide/internal/repository"

	"github.com/rs/zerolog/log"
)

// Generator is the single generative call the researcher depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (*genai.Response, error)
}

// TransportCache is the persistent research cache.
type TransportCache interface {
	Get(ctx context.Context, city, countryCode, airportCode string) (*models.TransportCacheEntry, error)
	Upsert(ctx context.Context, params repository.UpsertParams) error
}

// Researcher runs the two grounded research queries, checking the cache
// before each and writing it after each successful call.
type Researcher struct {
	gen   Generator
	cache TransportCache
	ttl   time.Duration
}

// NewResearcher creates a researcher with the given cache TTL.
func NewResearcher(gen Generator, cache TransportCache, ttl time.Duration) *Researcher {
	return &Researcher{gen: gen, cache: cache, ttl: ttl}
}

// unavailableTransport is the deterministic "information unavailable"
// fallback for failed airport-transit research.
func unavailableTransport() *models.TransportInfo {
	return &models.TransportInfo{Options: []models.TransportOption{}, Available: false}
}

// unavailableHighway is the fallback for failed road research.
func unavailableHighway() *models.HighwayInfo {
	return &models.HighwayInfo{Highways: []string{}, Available: false}
}

// AirportTransit researches public-transport and taxi options from the given
// airport into the city. Never returns an error: any failure yields the
// unavailable fallback.
func (r *Researcher) AirportTransit(ctx context.Context, airport models.Airport, city, countryCode string, stations []models.Station) *models.TransportInfo {
	cached, err := r.cache.Get(ctx, city, countryCode, airport.Code)
	if err != nil {
		log.Warn().Err(err).Msg("research: transport cache read failed")
	}
	if cached != nil && cached.Transport != nil {
		log.Debug().Str("city", city).Str("airport", airport.Code).Msg("research: airport transit served from cache")
		return cached.Transport
	}

	prompt := airportTransitPrompt(airport, city, stations)
	resp, err := r.gen.Generate(ctx, prompt, genai.GenerateOptions{
		Temperature:     0.2,
		MaxOutputTokens: 2048,
		JSONOutput:      true,
		SearchGrounding: true,
	})
	if err != nil {
		log.Warn().Err(err).Str("airport", airport.Code).Msg("research: airport transit call failed")
		return unavailableTransport()
	}

	var info models.TransportInfo
	if !genai.ParseModelJSON(resp.Text, resp.FinishReason, &info) {
		return unavailableTransport()
	}
	info.Available = true

	if err := r.cache.Upsert(ctx, repository.UpsertParams{
		City: city, CountryCode: countryCode, AirportCode: airport.Code,
		Transport: &info, TTL: r.ttl,
	}); err != nil {
		// The research result is still good; only the next caller pays again.
		log.Warn().Err(err).Msg("research: transport cache write failed")
	}

	return &info
}

// Highways researches road access, tolls and low-emission zones for the
// city. cacheAirportCode keys the cache row; it is the city's primary
// airport, empty when there is none.
func (r *Researcher) Highways(ctx context.Context, city, country, countryCode, cacheAirportCode string) *models.HighwayInfo {
	cached, err := r.cache.Get(ctx, city, countryCode, cacheAirportCode)
	if err != nil {
		log.Warn().Err(err).Msg("research: transport cache read failed")
	}
	if cached != nil && cached.Highway != nil {
		log.Debug().Str("city", city).Msg("research: highway info served from cache")
		return cached.Highway
	}

	prompt := highwayPrompt(city, country)
	resp, err := r.gen.Generate(ctx, prompt, genai.GenerateOptions{
		Temperature:     0.2,
		MaxOutputTokens: 1024,
		JSONOutput:      true,
		SearchGrounding: true,
	})
	if err != nil {
		log.Warn().Err(err).Str("city", city).Msg("research: highway call failed")
		return unavailableHighway()
	}

	var info models.HighwayInfo
	if !genai.ParseModelJSON(resp.Text, resp.FinishReason, &info) {
		return unavailableHighway()
	}
	info.Available = true

	if err := r.cache.Upsert(ctx, repository.UpsertParams{
		City: city, CountryCode: countryCode, AirportCode: cacheAirportCode,
		Highway: &info, TTL: r.ttl,
	}); err != nil {
		log.Warn().Err(err).Msg("research: transport cache write failed")
	}

	return &info
}

func airportTransitPrompt(airport models.Airport, city string, stations []models.Station) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "How can a traveler get from %s (%s) to %s by public transport and by taxi?\n\n", airport.Name, airport.Code, city)

	metros := make([]string, 0, len(stations))
	for _, s := range stations {
		if s.Type == models.StationMetro {
			line := ""
			if len(s.Lines) > 0 {
				line = " (lines " + strings.Join(s.Lines, ", ") + ")"
			}
			metros = append(metros, fmt.Sprintf("%s%s, %.0fm away", s.Name, line, s.DistanceM))
		}
	}
	if len(metros) > 0 {
		fmt.Fprintf(&sb, "Metro stations near the destination: %s.\n\n", strings.Join(metros, "; "))
	}

	sb.WriteString(`Answer with ONLY a JSON object, no prose, in this exact shape:
{
  "options": [
    {"type": "metro|train|bus", "route": "...", "frequency": "...", "duration": "...", "price": "..."}
  ],
  "taxi": {"price_range": "...", "duration": "..."}
}`)
	return sb.String()
}

func highwayPrompt(city, country string) string {
	return fmt.Sprintf(`Which main highways reach %s, %s by car? Do they have tolls? Does the city have a low-emission zone restricting car access?

Answer with ONLY a JSON object, no prose, in this exact shape:
{
  "highways": ["..."],
  "tolls": true,
  "low_emission_zone": true,
  "notes": "..."
}`, city, country)
}
