package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceHaversine is an independent formulation (asin form) used to check
// HaversineDistance within tolerance.
func referenceHaversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"San Francisco to Los Angeles", 37.7749, -122.4194, 34.0522, -118.2437},
		{"New York to London", 40.7128, -74.0060, 51.5074, -0.1278},
		{"Sydney to Madrid (near antipodal)", -33.8688, 151.2093, 40.4168, -3.7038},
		{"Auckland to Seville (near antipodal)", -36.8485, 174.7633, 37.3891, -5.9845},
		{"Across the antimeridian", 0, 179.5, 0, -179.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineDistance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			want := referenceHaversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InEpsilon(t, want, got, 0.001)
		})
	}
}

func TestHaversineDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, HaversineDistance(28.6139, 77.2090, 28.6139, 77.2090))
}

func TestHaversineDistance_KnownCities(t *testing.T) {
	// New York to London is roughly 5570 km
	assert.InDelta(t, 5570, HaversineDistance(40.7128, -74.0060, 51.5074, -0.1278), 20)
	// Half the circumference along the equator
	assert.InDelta(t, math.Pi*EarthRadiusKm, HaversineDistance(0, 0, 0, 180), 1e-6)
}

func TestParseCoordinates(t *testing.T) {
	p, err := ParseCoordinates("77.2090,28.6139")
	require.NoError(t, err)
	assert.Equal(t, Point{Longitude: 77.2090, Latitude: 28.6139}, p)

	p, err = ParseCoordinates(" -122.4194 , 37.7749 ")
	require.NoError(t, err)
	assert.Equal(t, -122.4194, p.Longitude)

	invalid := []string{
		"",
		"77.2",
		"1,2,3",
		"abc,12",
		"12,abc",
		"181,0",
		"0,91",
		"-180.5,0",
		"NaN,0",
	}
	for _, raw := range invalid {
		_, err := ParseCoordinates(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestValidateLocation(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  float64
		expectErr bool
	}{
		{"Valid coordinates", 37.7749, -122.4194, false},
		{"North Pole", 90, 0, false},
		{"Date Line West", 0, -180, false},
		{"Latitude too high", 91, 0, true},
		{"Longitude too low", 0, -181, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocation(tt.lat, tt.lon)
			assert.Equal(t, tt.expectErr, err != nil)
		})
	}
}

func TestBoundingBoxFor_ContainsRadius(t *testing.T) {
	center := Point{Longitude: 77.2090, Latitude: 28.6139}
	box := BoundingBoxFor(center, 50)
	require.False(t, box.LonUnbounded)

	// A point due north at exactly 50 km must sit inside the box.
	northLat := center.Latitude + (50/EarthRadiusKm)*180/math.Pi
	assert.LessOrEqual(t, northLat, box.MaxLat)
	assert.Less(t, box.MinLon, center.Longitude)
	assert.Greater(t, box.MaxLon, center.Longitude)
}

func TestBoundingBoxFor_Unbounded(t *testing.T) {
	assert.True(t, BoundingBoxFor(Point{Longitude: 0, Latitude: 89.9}, 100).LonUnbounded, "pole")
	assert.True(t, BoundingBoxFor(Point{Longitude: 179.9, Latitude: 0}, 100).LonUnbounded, "antimeridian")
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
	assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
	assert.Len(t, HashKey("x"), 32)
}

func TestPaginateSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, items, PaginateSlice(items, PaginationParams{}))
	assert.Equal(t, []int{3, 4}, PaginateSlice(items, PaginationParams{Page: 2, Limit: 2}))
	assert.Equal(t, []int{5}, PaginateSlice(items, PaginationParams{Page: 3, Limit: 2}))
	assert.Empty(t, PaginateSlice(items, PaginationParams{Page: 9, Limit: 2}))
}
