package service

import (
	"context"
	"strings"
	"testing"

	"arrival-guide/internal/genai"
	"arrival-guide/internal/geocoder"
	"arrival-guide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGeocoder is a mock implementation of the Geocoder interface.
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*models.GeocodeResult, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeocodeResult), args.Error(1)
}

// MockAirportFinder is a mock implementation of the AirportFinder interface.
type MockAirportFinder struct {
	mock.Mock
}

func (m *MockAirportFinder) Find(ctx context.Context, lat, lng, radiusKm float64) []models.Airport {
	args := m.Called(ctx, lat, lng, radiusKm)
	return args.Get(0).([]models.Airport)
}

// MockStationFinder is a mock implementation of the StationFinder interface.
type MockStationFinder struct {
	mock.Mock
}

func (m *MockStationFinder) Find(ctx context.Context, lat, lng float64, radiusM int) []models.Station {
	args := m.Called(ctx, lat, lng, radiusM)
	return args.Get(0).([]models.Station)
}

// MockParkingFinder is a mock implementation of the ParkingFinder interface.
type MockParkingFinder struct {
	mock.Mock
}

func (m *MockParkingFinder) Find(ctx context.Context, lat, lng float64, radiusM int) models.ParkingInfo {
	args := m.Called(ctx, lat, lng, radiusM)
	return args.Get(0).(models.ParkingInfo)
}

// MockResearcher is a mock implementation of the Researcher interface.
type MockResearcher struct {
	mock.Mock
}

func (m *MockResearcher) AirportTransit(ctx context.Context, airport models.Airport, city, countryCode string, stations []models.Station) *models.TransportInfo {
	args := m.Called(ctx, airport, city, countryCode, stations)
	return args.Get(0).(*models.TransportInfo)
}

func (m *MockResearcher) Highways(ctx context.Context, city, country, countryCode, cacheAirportCode string) *models.HighwayInfo {
	args := m.Called(ctx, city, country, countryCode, cacheAirportCode)
	return args.Get(0).(*models.HighwayInfo)
}

// MockGenerator is a mock implementation of the Generator interface.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (*genai.Response, error) {
	args := m.Called(ctx, prompt, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.Response), args.Error(1)
}

func madridGeocode() *models.GeocodeResult {
	return &models.GeocodeResult{
		Lat: 40.4200, Lng: -3.7058,
		City: "Madrid", Country: "Spain", CountryCode: "ES",
		Timezone: "Europe/Madrid", Confidence: 0.95,
		Accuracy: models.AccuracyRooftop, Source: "google",
		FormattedAddress: "Gran Vía 1, 28013 Madrid, Spain",
	}
}

func madridAirports() []models.Airport {
	return []models.Airport{
		{Name: "Adolfo Suárez Madrid–Barajas Airport", Code: "MAD", City: "Madrid", Lat: 40.4983, Lon: -3.5676, DistanceKm: 14.7},
	}
}

const instructionsJSON = `{
	"by_road": {"text": "Take the A-2 into the city.", "duration": "20 min", "price": "free"},
	"from_airport": {"text": "Metro Line 8 to Nuevos Ministerios, then Line 1 to Gran Vía.", "duration": "35 min", "price": "5 EUR"},
	"from_train": {"text": "From Atocha take Line 1 north.", "duration": "10 min", "price": "1.50 EUR"},
	"nearby_transport": [{"type": "metro", "name": "Gran Vía", "distance": "120 m"}],
	"parking": {"text": "Use the Plaza Mayor underground garage.", "price": "25 EUR/day"}
}`

type pipelineMocks struct {
	geocoder   *MockGeocoder
	airports   *MockAirportFinder
	stations   *MockStationFinder
	parking    *MockParkingFinder
	researcher *MockResearcher
	gen        *MockGenerator
}

func newPipeline() (*GuideService, *pipelineMocks) {
	m := &pipelineMocks{
		geocoder:   new(MockGeocoder),
		airports:   new(MockAirportFinder),
		stations:   new(MockStationFinder),
		parking:    new(MockParkingFinder),
		researcher: new(MockResearcher),
		gen:        new(MockGenerator),
	}
	svc := NewGuideService(m.geocoder, m.airports, m.stations, m.parking, m.researcher, m.gen)
	return svc, m
}

func (m *pipelineMocks) stubHappyDiscovery() {
	m.geocoder.On("Geocode", mock.Anything, mock.Anything).Return(madridGeocode(), nil)
	m.airports.On("Find", mock.Anything, mock.Anything, mock.Anything, airportRadiusKm).Return(madridAirports())
	m.stations.On("Find", mock.Anything, mock.Anything, mock.Anything, stationRadiusM).Return([]models.Station{
		{Name: "Gran Vía", Type: models.StationMetro, DistanceM: 120, Lines: []string{"1", "5"}},
	})
	m.parking.On("Find", mock.Anything, mock.Anything, mock.Anything, parkingRadiusM).Return(models.ParkingInfo{
		HasRegulatedParking: true,
		Zones:               []models.ParkingZone{{Name: "Plaza Mayor", Type: "underground", Fee: models.FeeYes, DistanceM: 350}},
	})
}

func TestGuideService_Generate_FullPipeline(t *testing.T) {
	// Setup
	svc, m := newPipeline()
	m.stubHappyDiscovery()
	m.researcher.On("AirportTransit", mock.Anything, madridAirports()[0], "Madrid", "ES", mock.Anything).
		Return(&models.TransportInfo{Available: true, Options: []models.TransportOption{{Type: "metro", Route: "Line 8"}}})
	m.researcher.On("Highways", mock.Anything, "Madrid", "Spain", "ES", "MAD").
		Return(&models.HighwayInfo{Available: true, Highways: []string{"A-2"}})
	m.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.Response{Text: instructionsJSON, FinishReason: "STOP"}, nil)

	// Execute
	guide, err := svc.Generate(context.Background(), "Gran Vía 1, Madrid, España", models.SectionAll)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, guide)
	assert.Equal(t, "Madrid", guide.Geocode.City)
	assert.Equal(t, models.AccuracyRooftop, guide.Geocode.Accuracy)
	require.Len(t, guide.Airports, 1)
	assert.Equal(t, "MAD", guide.Airports[0].Code)
	require.NotNil(t, guide.Instructions)
	assert.NotNil(t, guide.Instructions.ByRoad)
	assert.NotNil(t, guide.Instructions.FromAirport)
	assert.NotNil(t, guide.Instructions.Parking)
	m.researcher.AssertExpectations(t)
}

func TestGuideService_Generate_EmptyAddress(t *testing.T) {
	svc, _ := newPipeline()

	guide, err := svc.Generate(context.Background(), "", models.SectionAll)

	assert.Nil(t, guide)
	assert.Error(t, err)
}

func TestGuideService_Generate_GeocodeFailureIsTerminal(t *testing.T) {
	svc, m := newPipeline()
	m.geocoder.On("Geocode", mock.Anything, mock.Anything).Return(nil, geocoder.ErrAllProvidersFailed)

	guide, err := svc.Generate(context.Background(), "nowhere at all", models.SectionAll)

	assert.Nil(t, guide)
	assert.ErrorIs(t, err, geocoder.ErrAllProvidersFailed)
	m.airports.AssertNotCalled(t, "Find")
	m.gen.AssertNotCalled(t, "Generate")
}

func TestGuideService_Generate_SynthesisFailureReturnsPartialGuide(t *testing.T) {
	// Setup: final generation fails; geocode and discovery data must survive.
	svc, m := newPipeline()
	m.stubHappyDiscovery()
	m.researcher.On("AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.TransportInfo{Available: false})
	m.researcher.On("Highways", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.HighwayInfo{Available: false})
	m.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	// Execute
	guide, err := svc.Generate(context.Background(), "Gran Vía 1, Madrid", models.SectionAll)

	// Assert: nil instructions with no error, distinct from the terminal case.
	require.NoError(t, err)
	require.NotNil(t, guide)
	assert.Nil(t, guide.Instructions)
	assert.Equal(t, "Madrid", guide.Geocode.City)
	assert.Len(t, guide.Airports, 1)
}

func TestGuideService_Generate_UnparseableSynthesisReturnsPartialGuide(t *testing.T) {
	svc, m := newPipeline()
	m.stubHappyDiscovery()
	m.researcher.On("AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.TransportInfo{Available: false})
	m.researcher.On("Highways", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.HighwayInfo{Available: false})
	m.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.Response{Text: "sorry, I cannot help with that", FinishReason: "STOP"}, nil)

	guide, err := svc.Generate(context.Background(), "Gran Vía 1, Madrid", models.SectionAll)

	require.NoError(t, err)
	assert.Nil(t, guide.Instructions)
}

func TestGuideService_Generate_SectionScopedResearch(t *testing.T) {
	tests := []struct {
		name           string
		section        models.Section
		expectTransit  bool
		expectHighways bool
		expectNullHint string
	}{
		{
			name:    "all sections research everything",
			section: models.SectionAll, expectTransit: true, expectHighways: true,
		},
		{
			name:    "plane section skips highway research",
			section: models.SectionPlane, expectTransit: true, expectHighways: false,
			expectNullHint: `"from_airport"`,
		},
		{
			name:    "road section skips transit research",
			section: models.SectionRoad, expectTransit: false, expectHighways: true,
			expectNullHint: `"by_road"`,
		},
		{
			name:    "parking section skips both research branches",
			section: models.SectionParking, expectTransit: false, expectHighways: false,
			expectNullHint: `"parking"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			svc, m := newPipeline()
			m.stubHappyDiscovery()
			m.researcher.On("AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(&models.TransportInfo{Available: true}).Maybe()
			m.researcher.On("Highways", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(&models.HighwayInfo{Available: true}).Maybe()

			var capturedPrompt string
			m.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { capturedPrompt = args.String(1) }).
				Return(&genai.Response{Text: instructionsJSON, FinishReason: "STOP"}, nil)

			// Execute
			_, err := svc.Generate(context.Background(), "Gran Vía 1, Madrid", tt.section)
			require.NoError(t, err)

			// Assert
			if tt.expectTransit {
				m.researcher.AssertCalled(t, "AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				m.researcher.AssertNotCalled(t, "AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.expectHighways {
				m.researcher.AssertCalled(t, "Highways", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				m.researcher.AssertNotCalled(t, "Highways", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			if tt.expectNullHint != "" {
				assert.Contains(t, capturedPrompt, "Set every other field to null")
				assert.Contains(t, capturedPrompt, tt.expectNullHint)
			}
		})
	}
}

func TestGuideService_Generate_NoAirportUsesEmptyCacheKey(t *testing.T) {
	// A city with no airport in range must still get highway research, keyed
	// by an empty airport code.
	svc, m := newPipeline()
	m.geocoder.On("Geocode", mock.Anything, mock.Anything).Return(madridGeocode(), nil)
	m.airports.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Airport{})
	m.stations.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.Station{})
	m.parking.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(models.ParkingInfo{})
	m.researcher.On("Highways", mock.Anything, "Madrid", "Spain", "ES", "").
		Return(&models.HighwayInfo{Available: false})
	m.gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&genai.Response{Text: instructionsJSON, FinishReason: "STOP"}, nil)

	guide, err := svc.Generate(context.Background(), "Cuenca, España", models.SectionAll)

	require.NoError(t, err)
	assert.NotNil(t, guide)
	m.researcher.AssertCalled(t, "Highways", mock.Anything, "Madrid", "Spain", "ES", "")
	m.researcher.AssertNotCalled(t, "AirportTransit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildSynthesisPrompt_IncludesDiscoveredData(t *testing.T) {
	guide := &models.ArrivalGuide{
		Geocode:  madridGeocode(),
		Airports: madridAirports(),
		Stations: []models.Station{{Name: "Gran Vía", Type: models.StationMetro, DistanceM: 120, Lines: []string{"1", "5"}}},
		Parking: models.ParkingInfo{
			HasRegulatedParking: true,
			Zones:               []models.ParkingZone{{Name: "Plaza Mayor", Type: "underground", DistanceM: 350}},
		},
	}
	transport := &models.TransportInfo{Available: true, Options: []models.TransportOption{{Type: "metro", Route: "Line 8"}}}
	highway := &models.HighwayInfo{Available: true, Highways: []string{"A-2"}}

	prompt := buildSynthesisPrompt(guide, transport, highway, models.SectionAll)

	for _, fragment := range []string{"MAD", "Gran Vía", "Plaza Mayor", "regulated", "Line 8", "A-2"} {
		assert.True(t, strings.Contains(prompt, fragment), "prompt missing %q", fragment)
	}
	assert.NotContains(t, prompt, "Set every other field to null")
}
