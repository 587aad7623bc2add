package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectAmersfoortTower(t *testing.T) {
	// The Onze Lieve Vrouwe tower is the origin of the RD system.
	x, y, err := Project(5.387201, 52.155172)
	require.NoError(t, err)
	assert.InEpsilon(t, 155_000, x, 1e-4)
	assert.InEpsilon(t, 463_000, y, 1e-4)
}

func TestProjectKnownCities(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		x, y     float64
	}{
		{"amsterdam", 4.9003, 52.3791, 121846, 488026},
		{"groningen", 6.5665, 53.2194, 233770, 582065},
		{"maastricht", 5.6910, 50.8513, 176395, 317985},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := Project(tt.lon, tt.lat)
			require.NoError(t, err)
			// Fixture values are rounded to whole meters.
			assert.InDelta(t, tt.x, x, 1)
			assert.InDelta(t, tt.y, y, 1)
		})
	}
}

func TestProjectOutsideDomain(t *testing.T) {
	_, _, err := Project(13.4050, 52.5200) // Berlin
	var perr *ProjectionError
	require.ErrorAs(t, err, &perr)
	assert.InDelta(t, 13.4050, perr.Lon, 1e-9)
}

func TestProjectUnprojectRoundTrip(t *testing.T) {
	coords := [][2]float64{
		{5.387201, 52.155172},
		{4.9003, 52.3791},
		{6.5665, 53.2194},
		{5.6910, 50.8513},
		{3.9, 51.5},
	}
	for _, c := range coords {
		x, y, err := Project(c[0], c[1])
		require.NoError(t, err)
		lon, lat := Unproject(x, y)
		assert.InDelta(t, c[0], lon, 1e-6)
		assert.InDelta(t, c[1], lat, 1e-6)
	}
}

func TestNormalizeOrigin(t *testing.T) {
	s := DefaultScaler()
	nx, ny := s.Normalize(155_000, 463_000)
	assert.InDelta(t, 0, nx, 1e-9)
	assert.InDelta(t, 0, ny, 1e-9)
}

func TestNormalizedProjectionCoversOperationalArea(t *testing.T) {
	s := DefaultScaler()
	for lon := 3.4; lon <= 7.2; lon += 0.2 {
		for lat := 50.8; lat <= 53.5; lat += 0.15 {
			x, y, err := Project(lon, lat)
			require.NoError(t, err)
			nx, ny := s.Normalize(x, y)
			assert.GreaterOrEqual(t, nx, -1.2)
			assert.LessOrEqual(t, nx, 1.2)
			assert.GreaterOrEqual(t, ny, -1.2)
			assert.LessOrEqual(t, ny, 1.2)
		}
	}
}
