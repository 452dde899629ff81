package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name     string
		a, b     LatLng
		expected float64
		delta    float64
	}{
		{
			name:     "Same point",
			a:        LatLng{Lat: 37.8, Lng: -122.45},
			b:        LatLng{Lat: 37.8, Lng: -122.45},
			expected: 0,
			delta:    1e-9,
		},
		{
			name:     "Along a meridian",
			a:        LatLng{Lat: 37.8, Lng: -122.45},
			b:        LatLng{Lat: 37.8 + MetersToLatDegrees(60), Lng: -122.45},
			expected: 60,
			delta:    1e-6,
		},
		{
			name:     "San Francisco to Los Angeles",
			a:        LatLng{Lat: 37.7749, Lng: -122.4194},
			b:        LatLng{Lat: 34.0522, Lng: -118.2437},
			expected: 559_120,
			delta:    1_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DistanceMeters(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceMiles(t *testing.T) {
	a := LatLng{Lat: 37.7749, Lng: -122.4194}
	b := LatLng{Lat: 34.0522, Lng: -118.2437}

	miles := DistanceMiles(a, b)
	meters := DistanceMeters(a, b)

	assert.InDelta(t, 347.4, miles, 1)
	assert.InDelta(t, meters/EarthRadiusMeters, miles/EarthRadiusMiles, 1e-12)
}

func TestDistanceNaNPropagates(t *testing.T) {
	a := LatLng{Lat: math.NaN(), Lng: 0}
	b := LatLng{Lat: 1, Lng: 1}

	assert.True(t, math.IsNaN(DistanceMeters(a, b)))
	assert.False(t, a.Valid())
	assert.True(t, b.Valid())
}
