package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings. Values come from configs/app.env and may
// be overridden through the environment.
type Config struct {
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	DBSource      string `mapstructure:"DB_SOURCE"`

	// Geocoding providers, tried in GeocoderOrder. A provider with no key
	// configured is skipped at wiring time, not at request time.
	GeocoderOrder    []string `mapstructure:"GEOCODER_ORDER"`
	GoogleMapsAPIKey string   `mapstructure:"GOOGLE_MAPS_API_KEY"`
	OpenCageAPIKey   string   `mapstructure:"OPENCAGE_API_KEY"`
	NominatimBaseURL string   `mapstructure:"NOMINATIM_BASE_URL"`
	DefaultTimezone  string   `mapstructure:"DEFAULT_TIMEZONE"`

	// Discovery endpoints.
	WikidataSPARQLURL string `mapstructure:"WIKIDATA_SPARQL_URL"`
	OverpassURL       string `mapstructure:"OVERPASS_URL"`

	// Generative model.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`

	// Transport research cache TTL.
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
}

// LoadConfig reads configuration from the given directory, letting
// environment variables override file values.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	viper.SetDefault("GEOCODER_ORDER", []string{"google", "opencage", "nominatim"})
	viper.SetDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("DEFAULT_TIMEZONE", "UTC")
	viper.SetDefault("WIKIDATA_SPARQL_URL", "https://query.wikidata.org/sparql")
	viper.SetDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	viper.SetDefault("CACHE_TTL", 30*24*time.Hour)

	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		// Running on env vars alone is fine; only a malformed file is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
