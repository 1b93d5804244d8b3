package service

import (
	"context"
	"fmt"

	"arrival-guide/internal/models"
)

// AddressValidator judges a geocode result against the typed address.
type AddressValidator interface {
	Validate(ctx context.Context, result *models.GeocodeResult, originalAddress string) models.ValidationResult
}

// ValidationService resolves an address and checks the resolution against
// the user's intent. It runs independently of guide generation.
type ValidationService struct {
	geocoder  Geocoder
	validator AddressValidator
}

// NewValidationService creates a validation service.
func NewValidationService(geocoder Geocoder, validator AddressValidator) *ValidationService {
	return &ValidationService{geocoder: geocoder, validator: validator}
}

// Validate geocodes the address and derives its validation result. Only the
// geocoding step can fail; validation itself never does.
func (s *ValidationService) Validate(ctx context.Context, address string) (*models.GeocodeResult, *models.ValidationResult, error) {
	if address == "" {
		return nil, nil, fmt.Errorf("service: address cannot be empty")
	}

	result, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, nil, fmt.Errorf("service: failed to geocode address: %w", err)
	}

	vr := s.validator.Validate(ctx, result, address)
	return result, &vr, nil
}
