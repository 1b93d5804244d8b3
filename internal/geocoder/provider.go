// Package geocoder resolves free-text addresses into canonical coordinates by
// trying an ordered list of providers until one succeeds.
package geocoder

import (
	"context"
	"errors"

	"arrival-guide/internal/models"
)

// ErrAllProvidersFailed is returned when no configured provider could resolve
// the address. It is the only terminal error in the pipeline: without
// coordinates no arrival guide can be produced.
var ErrAllProvidersFailed = errors.New("geocoder: all providers failed to resolve address")

// ErrNoResults is returned by an individual provider when the upstream call
// succeeded but matched nothing. The chain treats it like any other provider
// failure and moves on.
var ErrNoResults = errors.New("geocoder: no results for address")

// Provider is one geocoding backend. Adapters normalize their provider's
// response shape into the canonical GeocodeResult, including the mapping of
// provider-specific precision tokens onto the four-level Accuracy enum.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)
}
