package geocoder

import (
	"context"
	"strings"
	"time"

	"arrival-guide/internal/models"

	"github.com/bluele/gcache"
	"github.com/rs/zerolog/log"
)

// Chain tries each provider in order until one returns a result. Successful
// resolutions are kept in a short-lived in-process cache so repeated lookups
// of the same address within an editing session do not re-bill providers.
type Chain struct {
	providers       []Provider
	defaultTimezone string
	cache           gcache.Cache
}

const (
	resultCacheSize = 256
	resultCacheTTL  = 10 * time.Minute
)

// NewChain builds a fallback chain over the given providers, in order.
// defaultTimezone fills results from providers that report no timezone; this
// is best-effort degradation, not an error.
func NewChain(defaultTimezone string, providers ...Provider) *Chain {
	return &Chain{
		providers:       providers,
		defaultTimezone: defaultTimezone,
		cache:           gcache.New(resultCacheSize).LRU().Expiration(resultCacheTTL).Build(),
	}
}

// Geocode resolves the address through the first provider that succeeds.
// Individual provider failures are logged and swallowed; only when every
// provider has failed (or none is configured) does it return
// ErrAllProvidersFailed.
func (c *Chain) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	key := strings.ToLower(strings.TrimSpace(address))
	if cached, err := c.cache.Get(key); err == nil {
		result := cached.(models.GeocodeResult)
		return &result, nil
	}

	for _, p := range c.providers {
		result, err := p.Geocode(ctx, address)
		if err != nil {
			log.Warn().
				Err(err).
				Str("provider", p.Name()).
				Str("address", address).
				Msg("geocoder: provider failed, falling through")
			continue
		}

		if result.Timezone == "" {
			result.Timezone = c.defaultTimezone
		}

		if err := c.cache.Set(key, *result); err != nil {
			log.Warn().Err(err).Msg("geocoder: failed to cache result")
		}
		log.Info().
			Str("provider", p.Name()).
			Str("city", result.City).
			Str("accuracy", string(result.Accuracy)).
			Msg("geocoder: address resolved")
		return result, nil
	}

	return nil, ErrAllProvidersFailed
}
