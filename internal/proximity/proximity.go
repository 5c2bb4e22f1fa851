// Package proximity counts competitor points inside fixed-radius buffers
// around store points. All inputs must be expressed in a projected,
// metric frame.
package proximity

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/competitor-map/internal/geo"
)

// MetersPerMile is the statute mile used to convert radius thresholds.
const MetersPerMile = 1609.34

var (
	// ErrInvalidRadius is returned for radii that are not finite and positive.
	ErrInvalidRadius = eris.New("invalid radius")

	// ErrEmptyCompetitorSet is returned only when the caller requires at
	// least one competitor to count against.
	ErrEmptyCompetitorSet = eris.New("empty competitor set")
)

// MilesToMeters converts a radius in miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * MetersPerMile
}

func checkRadius(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return eris.Wrapf(ErrInvalidRadius, "radius %v must be a positive number", r)
	}
	return nil
}

// Within reports whether p lies inside or on the boundary of the disk of
// radiusMeters centered on center. Both points must share one projected
// frame.
func Within(center, p geo.Point, radiusMeters float64) (bool, error) {
	if err := checkRadius(radiusMeters); err != nil {
		return false, err
	}
	if err := sameProjectedFrame(center, p); err != nil {
		return false, err
	}
	return within(center, p, radiusMeters), nil
}

// within is the closed containment test without frame checks.
func within(center, p geo.Point, r float64) bool {
	dx := p.X - center.X
	dy := p.Y - center.Y
	return dx*dx+dy*dy <= r*r
}

func sameProjectedFrame(a, b geo.Point) error {
	if !a.Frame.IsProjected() {
		return eris.Wrapf(geo.ErrFrameMismatch, "%s is not a metric frame", a.Frame)
	}
	if a.Frame != b.Frame {
		return eris.Wrapf(geo.ErrFrameMismatch, "%s vs %s", a.Frame, b.Frame)
	}
	return nil
}

// ValidateRadii checks every radius and returns a sorted, de-duplicated
// copy so per-radius counts come out in ascending order.
func ValidateRadii(radii []float64) ([]float64, error) {
	if len(radii) == 0 {
		return nil, eris.Wrap(ErrInvalidRadius, "at least one radius is required")
	}
	out := make([]float64, 0, len(radii))
	for _, r := range radii {
		if err := checkRadius(r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.Float64s(out)

	dedup := out[:1]
	for _, r := range out[1:] {
		if r != dedup[len(dedup)-1] {
			dedup = append(dedup, r)
		}
	}
	return dedup, nil
}
