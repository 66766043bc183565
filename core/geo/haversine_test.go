package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantKm                 float64
	}{
		{"same point", 7.50, 122.00, 7.50, 122.00, 0},
		{"city block scale", 7.50, 122.00, 7.49, 122.01, 1.57},
		{"substation scale", 6.90, 122.09, 6.91, 122.08, 1.57},
		{"one degree latitude", 0, 0, 1, 0, 111.19},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceKm(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			assert.InDelta(t, tc.wantKm, got, 0.05)
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{7.50, 122.00, 6.90, 122.09},
		{14.5995, 120.9842, 7.1907, 125.4553},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}
	for _, p := range pairs {
		ab := DistanceKm(p[0], p[1], p[2], p[3])
		ba := DistanceKm(p[2], p[3], p[0], p[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistanceKm_NonNegative(t *testing.T) {
	d := DistanceKm(7.1, 122.2, 6.8, 121.9)
	assert.GreaterOrEqual(t, d, 0.0)
}

func TestDistanceKm_NonFiniteInput(t *testing.T) {
	assert.True(t, math.IsNaN(DistanceKm(math.NaN(), 122.0, 7.5, 122.0)))
	assert.True(t, math.IsNaN(DistanceKm(7.5, math.Inf(1), 7.5, 122.0)))
}
