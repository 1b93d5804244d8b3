package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockValidationService is a mock implementation of the ValidationService
// interface.
type MockValidationService struct {
	mock.Mock
}

func (m *MockValidationService) Validate(ctx context.Context, address string) (*models.GeocodeResult, *models.ValidationResult, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.GeocodeResult), args.Get(1).(*models.ValidationResult), args.Error(2)
}

func TestValidateHandler_Validate(t *testing.T) {
	geocode := &models.GeocodeResult{City: "Madrid", Confidence: 0.95, Accuracy: models.AccuracyRooftop}
	validation := &models.ValidationResult{IsValid: true, Confidence: 0.95, Warnings: []string{}}

	tests := []struct {
		name           string
		body           map[string]string
		mockResult     *models.GeocodeResult
		mockValidation *models.ValidationResult
		mockError      error
		expectedStatus int
	}{
		{
			name:           "missing address",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unresolvable address",
			body:           map[string]string{"address": "nowhere"},
			mockError:      geocoder.ErrAllProvidersFailed,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "successful validation",
			body:           map[string]string{"address": "Gran Vía 1, Madrid"},
			mockResult:     geocode,
			mockValidation: validation,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockSvc := new(MockValidationService)
			h := NewValidateHandler(mockSvc)

			if tt.mockResult != nil || tt.mockError != nil {
				mockSvc.On("Validate", mock.Anything, tt.body["address"]).
					Return(tt.mockResult, tt.mockValidation, tt.mockError)
			}

			// Execute
			w := postJSON(t, h.Validate, "/v1/validate-address", tt.body)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp validateResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, geocode.City, resp.Result.City)
				assert.True(t, resp.Validation.IsValid)
			}
		})
	}
}
