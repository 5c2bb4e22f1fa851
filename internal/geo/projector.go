package geo

import (
	"math"
	"sort"

	"github.com/golang/geo/s2"
	"github.com/rotisserie/eris"
	"github.com/umahmood/haversine"
)

// Projector converts points between the geographic frame and one UTM frame.
// It holds no mutable state and is safe to share.
type Projector struct {
	target Frame
	zone   int
	north  bool
}

// NewProjector returns a projector whose planar frame is target.
func NewProjector(target Frame) (*Projector, error) {
	zone, north, ok := target.UTM()
	if !ok {
		return nil, eris.Errorf("geo: %s is not a supported projected frame", target)
	}
	return &Projector{target: target, zone: zone, north: north}, nil
}

// Target returns the projected frame.
func (p *Projector) Target() Frame { return p.target }

// Forward projects a geographic point into the target frame.
func (p *Projector) Forward(pt Point) (Point, error) {
	if pt.Frame != Geographic {
		return Point{}, eris.Wrapf(ErrFrameMismatch, "forward: expected %s, got %s", Geographic, pt.Frame)
	}
	if err := ValidateLonLat(pt.X, pt.Y); err != nil {
		return Point{}, err
	}
	if pt.Y < utmMinLat || pt.Y > utmMaxLat {
		return Point{}, eris.Wrapf(ErrInvalidCoordinate, "latitude %v outside the UTM domain", pt.Y)
	}
	if off := math.Abs(meridianDelta(pt.X, p.zone)); off > MaxMeridianOffset {
		return Point{}, eris.Wrapf(ErrInvalidCoordinate,
			"longitude %v is %.1f degrees from the central meridian of %s", pt.X, off, p.target)
	}
	x, y := utmForward(pt.X, pt.Y, p.zone, p.north)
	return Point{X: x, Y: y, Frame: p.target}, nil
}

// Inverse converts a point in the target frame back to geographic degrees.
func (p *Projector) Inverse(pt Point) (Point, error) {
	if pt.Frame != p.target {
		return Point{}, eris.Wrapf(ErrFrameMismatch, "inverse: expected %s, got %s", p.target, pt.Frame)
	}
	if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
		return Point{}, eris.Wrap(ErrInvalidCoordinate, "inverse: non-finite easting/northing")
	}
	lon, lat := utmInverse(pt.X, pt.Y, p.zone, p.north)
	return LonLat(lon, lat), nil
}

// Transform re-expresses pt in frame to. Conversions between two UTM frames
// go through the geographic frame.
func Transform(pt Point, to Frame) (Point, error) {
	if !to.Valid() {
		return Point{}, eris.Errorf("geo: unsupported target frame %s", to)
	}
	if pt.Frame == to {
		return pt, nil
	}

	geographic := pt
	if pt.Frame != Geographic {
		src, err := NewProjector(pt.Frame)
		if err != nil {
			return Point{}, err
		}
		if geographic, err = src.Inverse(pt); err != nil {
			return Point{}, err
		}
	}
	if to == Geographic {
		return geographic, nil
	}

	dst, err := NewProjector(to)
	if err != nil {
		return Point{}, err
	}
	return dst.Forward(geographic)
}

// FrameForExtent picks the UTM frame of the median position of the given
// geographic points, so a few far-off records cannot move the frame away from
// the bulk of the data. Invalid points are ignored; an error is returned when
// none are valid.
func FrameForExtent(points []Point) (Frame, error) {
	lats := make([]float64, 0, len(points))
	lngs := make([]float64, 0, len(points))
	for _, pt := range points {
		if pt.Frame != Geographic || ValidateLonLat(pt.X, pt.Y) != nil {
			continue
		}
		ll := s2.LatLngFromDegrees(pt.Y, pt.X).Normalized()
		lats = append(lats, ll.Lat.Degrees())
		lngs = append(lngs, ll.Lng.Degrees())
	}
	if len(lats) == 0 {
		return 0, eris.Wrap(ErrInvalidCoordinate, "geo: no valid points to derive a frame from")
	}

	center := s2.LatLngFromDegrees(median(lats), median(lngs))
	return UTMFrame(ZoneFor(center.Lng.Degrees()), center.Lat.Degrees() >= 0)
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// Distortion returns the relative difference between the planar distance of
// two projected points and the great-circle distance of the same points.
// Values near zero mean the frame is metric across that span.
func (p *Projector) Distortion(a, b Point) (float64, error) {
	ga, err := p.Inverse(a)
	if err != nil {
		return 0, err
	}
	gb, err := p.Inverse(b)
	if err != nil {
		return 0, err
	}

	_, km := haversine.Distance(
		haversine.Coord{Lat: ga.Lat(), Lon: ga.Lon()},
		haversine.Coord{Lat: gb.Lat(), Lon: gb.Lon()},
	)
	sphere := km * 1000
	if sphere == 0 {
		return 0, nil
	}
	planar := math.Hypot(a.X-b.X, a.Y-b.Y)
	return math.Abs(planar-sphere) / sphere, nil
}
