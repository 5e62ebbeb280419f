package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"siteclock.com/siteclock/tracker/model"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		expected   float64
		tolerance  float64
	}{
		{
			name: "Same point",
			lat1: -27.4698, lon1: 153.0251,
			lat2: -27.4698, lon2: 153.0251,
			expected:  0,
			tolerance: 0.01,
		},
		{
			name: "One degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			expected:  111195,
			tolerance: 100,
		},
		{
			name: "Brisbane to Sydney",
			lat1: -27.4698, lon1: 153.0251,
			lat2: -33.8688, lon2: 151.2093,
			expected:  732000,
			tolerance: 5000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, d, tt.tolerance)
		})
	}
}

func TestZoneCacheReplaceAll(t *testing.T) {
	cache := NewZoneCache()
	cache.ReplaceAll([]model.Zone{
		{ID: "a", Name: "Site A", Radius: 150},
		{ID: "b", Name: "Site B", Radius: 200},
	})

	assert.Equal(t, 2, cache.Len())

	// Full swap: the old set is gone entirely.
	cache.ReplaceAll([]model.Zone{
		{ID: "c", Name: "Site C", Radius: 120},
	})

	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("a")
	assert.False(t, ok)
	z, ok := cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "Site C", z.Name)
}

func TestZoneCacheClampsRadius(t *testing.T) {
	cache := NewZoneCache()
	cache.ReplaceAll([]model.Zone{
		{ID: "tiny", Radius: 20},
		{ID: "big", Radius: 500},
	})

	tiny, _ := cache.Get("tiny")
	assert.Equal(t, model.MinZoneRadius, tiny.Radius)

	big, _ := cache.Get("big")
	assert.Equal(t, 500.0, big.Radius)
}
