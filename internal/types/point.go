// README: Geographic point value object (decimal degrees).
package types

type Point struct {
	Lat float64
	Lng float64
}

// InRange reports whether the point is a plausible WGS84 coordinate.
func (p Point) InRange() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
