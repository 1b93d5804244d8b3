package main

import (
	"context"
	"net/http"

	"arrival-guide/internal/config"
	"arrival-guide/internal/discovery"
	"arrival-guide/internal/genai"
	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/handler"
	"arrival-guide/internal/repository"
	"arrival-guide/internal/research"
	"arrival-guide/internal/service"
	"arrival-guide/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	// Database connection
	conn, err := pgxpool.New(context.Background(), config.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close()

	if _, err := conn.Exec(context.Background(), repository.Schema); err != nil {
		log.Fatal().Err(err).Msg("cannot ensure cache schema")
	}

	// Initialize layers
	cache := repository.NewPostgresCache(conn)
	gen := genai.NewClient(config.GeminiAPIKey, config.GeminiModel)

	chain := geocoder.NewChain(config.DefaultTimezone, buildProviders(config)...)

	airports := discovery.NewAirportFinder(config.WikidataSPARQLURL)
	stations := discovery.NewStationFinder(config.OverpassURL)
	parking := discovery.NewParkingFinder(config.OverpassURL)

	researcher := research.NewResearcher(gen, cache, config.CacheTTL)

	guideService := service.NewGuideService(chain, airports, stations, parking, researcher, gen)
	validationService := service.NewValidationService(chain, validator.New(gen))

	arrivalHandler := handler.NewArrivalHandler(guideService)
	validateHandler := handler.NewValidateHandler(validationService)

	r := gin.Default()
	r.Use(requestID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.POST("/v1/arrival-guide", arrivalHandler.Generate)
	r.POST("/v1/validate-address", validateHandler.Validate)

	r.Run(config.ServerAddress)
}

// buildProviders assembles the fallback chain in the configured order,
// skipping providers with no key.
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
		default:
			log.Warn().Str("provider", name).Msg("unknown geocoding provider in GEOCODER_ORDER, skipping")
		}
	}
	return providers
}

// requestID tags each request with an id for log correlation.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Header("X-Request-ID", id)
		log.Info().
			Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request received")
		c.Next()
	}
}
