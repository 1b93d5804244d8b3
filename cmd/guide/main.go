package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"arrival-guide/internal/config"
	"arrival-guide/internal/discovery"
	"arrival-guide/internal/genai"
	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/models"
	"arrival-guide/internal/repository"
	"arrival-guide/internal/research"
	"arrival-guide/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// guide generates one arrival guide from the command line and prints it as
// JSON. Useful for smoke-testing the pipeline without the API server.
func main() {
	address := flag.String("address", "", "Address to generate an arrival guide for")
	section := flag.String("section", "", "Only regenerate one section: road, plane, train or parking")
	configPath := flag.String("config", "./configs", "Path to the config directory")
	noDB := flag.Bool("no-db", false, "Use an in-memory research cache instead of PostgreSQL")
	flag.Parse()

	if *address == "" {
		fmt.Println("Error: --address flag is required")
		os.Exit(1)
	}

	sec, err := models.ParseSection(*section)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var cache research.TransportCache
	if *noDB {
		cache = repository.NewMemoryCache()
	} else {
		conn, err := pgxpool.New(ctx, cfg.DBSource)
		if err != nil {
			fmt.Printf("Error connecting to database: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()
		if _, err := conn.Exec(ctx, repository.Schema); err != nil {
			fmt.Printf("Error ensuring cache schema: %v\n", err)
			os.Exit(1)
		}
		cache = repository.NewPostgresCache(conn)
	}

	gen := genai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	chain := geocoder.NewChain(cfg.DefaultTimezone, buildProviders(cfg)...)

	svc := service.NewGuideService(
		chain,
		discovery.NewAirportFinder(cfg.WikidataSPARQLURL),
		discovery.NewStationFinder(cfg.OverpassURL),
		discovery.NewParkingFinder(cfg.OverpassURL),
		research.NewResearcher(gen, cache, cfg.CacheTTL),
		gen,
	)

	guide, err := svc.Generate(ctx, *address, sec)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(guide, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding guide: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if guide.Instructions == nil {
		fmt.Fprintln(os.Stderr, "Note: instructions could not be generated, try again")
		os.Exit(2)
	}
}

func buildProviders(cfg config.Config) []geocoder.Provider {
	var providers []geocoder.Provider
	for _, name := range cfg.GeocoderOrder {
		switch name {
		case "google":
			if cfg.GoogleMapsAPIKey != "" {
				providers = append(providers, geocoder.NewGoogleProvider(cfg.GoogleMapsAPIKey))
			}
		case "opencage":
			if cfg.OpenCageAPIKey != "" {
				providers = append(providers, geocoder.NewOpenCageProvider(cfg.OpenCageAPIKey))
			}
		case "nominatim":
			providers = append(providers, geocoder.NewNominatimProvider(cfg.NominatimBaseURL))
		}
	}
	return providers
}
