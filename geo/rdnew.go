package geo

import "fmt"

// Base point of the approximation: the Onze Lieve Vrouwe tower in Amersfoort.
const (
	baseLat = 52.15517440
	baseLon = 5.38720621
	baseX   = 155000.0
	baseY   = 463000.0
)

// Validity window of the polynomial approximation. Roughly the Dutch
// territory plus a margin; outside it the polynomials diverge quickly.
const (
	minLon = 3.2
	maxLon = 7.3
	minLat = 50.6
	maxLat = 53.7
)

// ProjectionError reports coordinates outside the projection domain.
type ProjectionError struct {
	Lon float64
	Lat float64
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("coordinates outside RD New projection domain: lon=%.5f lat=%.5f", e.Lon, e.Lat)
}

type term struct {
	p, q int
	c    float64
}

var xTerms = []term{
	{0, 1, 190094.945},
	{1, 1, -11832.228},
	{2, 1, -114.221},
	{0, 3, -32.391},
	{1, 0, -0.705},
	{3, 1, -2.340},
	{1, 3, -0.608},
	{0, 2, -0.008},
	{2, 3, 0.148},
}

var yTerms = []term{
	{1, 0, 309056.544},
	{0, 2, 3638.893},
	{2, 0, 73.077},
	{1, 2, -157.984},
	{3, 0, 59.788},
	{0, 1, 0.433},
	{2, 2, -6.439},
	{1, 1, -0.032},
	{0, 4, 0.092},
	{1, 4, -0.054},
}

var latTerms = []term{
	{0, 1, 3235.65389},
	{2, 0, -32.58297},
	{0, 2, -0.24750},
	{2, 1, -0.84978},
	{0, 3, -0.06550},
	{2, 2, -0.01709},
	{1, 0, -0.00738},
	{4, 0, 0.00530},
	{2, 3, -0.00039},
	{4, 1, 0.00033},
	{1, 1, -0.00012},
}

var lonTerms = []term{
	{1, 0, 5260.52916},
	{1, 1, 105.94684},
	{1, 2, 2.45656},
	{3, 0, -0.81885},
	{1, 3, 0.05594},
	{3, 1, -0.05607},
	{0, 1, 0.01199},
	{3, 2, -0.00256},
	{1, 4, 0.00128},
	{0, 2, 0.00022},
	{2, 0, -0.00022},
	{5, 0, 0.00026},
}

func evalTerms(terms []term, a, b float64) float64 {
	sum := 0.0
	for _, t := range terms {
		sum += t.c * pow(a, t.p) * pow(b, t.q)
	}
	return sum
}

func pow(v float64, n int) float64 {
	r := 1.0
	for i := 0; i < n; i++ {
		r *= v
	}
	return r
}

// Project converts WGS84 degrees to RD New meters. Coordinates outside the
// approximation domain return a *ProjectionError.
func Project(lon, lat float64) (x, y float64, err error) {
	if lon < minLon || lon > maxLon || lat < minLat || lat > maxLat {
		return 0, 0, &ProjectionError{Lon: lon, Lat: lat}
	}
	dLat := 0.36 * (lat - baseLat)
	dLon := 0.36 * (lon - baseLon)
	x = baseX + evalTerms(xTerms, dLat, dLon)
	y = baseY + evalTerms(yTerms, dLat, dLon)
	return x, y, nil
}

// Unproject converts RD New meters back to WGS84 degrees.
func Unproject(x, y float64) (lon, lat float64) {
	dX := (x - baseX) * 1e-5
	dY := (y - baseY) * 1e-5
	lat = baseLat + evalTerms(latTerms, dX, dY)/3600
	lon = baseLon + evalTerms(lonTerms, dX, dY)/3600
	return lon, lat
}
