package geo

import (
	"github.com/twpayne/go-geom"
)

// Point is a 2-D coordinate tagged with the frame it is expressed in.
// X is longitude or easting, Y is latitude or northing.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Frame Frame   `json:"frame"`
}

// LonLat returns a geographic point. It does not validate the values; use
// ValidateLonLat or a Projector for that.
func LonLat(lon, lat float64) Point {
	return Point{X: lon, Y: lat, Frame: Geographic}
}

// Lon returns X for a geographic point.
func (p Point) Lon() float64 { return p.X }

// Lat returns Y for a geographic point.
func (p Point) Lat() float64 { return p.Y }

// Geom converts p to a go-geom point carrying the frame as SRID.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.X, p.Y}).SetSRID(p.Frame.SRID())
}
