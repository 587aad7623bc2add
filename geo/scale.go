package geo

// Scaler maps RD New coordinates onto a square display range.
//
// The RD range of the Netherlands is roughly 0 < x < 280 km and
// 300 < y < 625 km. Centering Amersfoort on (0, 0) with a 325 km span puts
// the whole country inside [-1, 1] with a small overshoot at the borders.
type Scaler struct {
	OriginX float64
	OriginY float64
	Span    float64
}

// DefaultScaler returns the scaler used for the rendering installation.
func DefaultScaler() Scaler {
	return Scaler{OriginX: 155_000, OriginY: 463_000, Span: 325_000}
}

// Normalize rescales projected meters into the display range.
func (s Scaler) Normalize(x, y float64) (nx, ny float64) {
	half := s.Span / 2
	return (x - s.OriginX) / half, (y - s.OriginY) / half
}
