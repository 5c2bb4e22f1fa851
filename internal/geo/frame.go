// Package geo provides reference frames, points and the UTM projection used
// to move store and competitor positions into a metric plane.
package geo

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
)

// ErrInvalidCoordinate is returned for positions that are missing,
// non-numeric or outside the valid longitude/latitude range.
var ErrInvalidCoordinate = eris.New("invalid coordinate")

// ErrFrameMismatch is returned when a point is used in a frame it is not
// expressed in, e.g. a geographic point fed to a metric predicate.
var ErrFrameMismatch = eris.New("reference frame mismatch")

// Frame identifies a coordinate reference system by its EPSG code.
type Frame int

// Geographic is WGS84 longitude/latitude in degrees (EPSG:4326).
const Geographic Frame = 4326

const (
	utmNorthBase = 32600
	utmSouthBase = 32700
)

// UTMFrame returns the WGS84 UTM frame for the given zone and hemisphere.
func UTMFrame(zone int, north bool) (Frame, error) {
	if zone < 1 || zone > 60 {
		return 0, eris.Errorf("geo: utm zone %d out of range", zone)
	}
	if north {
		return Frame(utmNorthBase + zone), nil
	}
	return Frame(utmSouthBase + zone), nil
}

// UTM reports the zone and hemisphere of a UTM frame. ok is false for any
// other frame.
func (f Frame) UTM() (zone int, north bool, ok bool) {
	switch {
	case f > utmNorthBase && f <= utmNorthBase+60:
		return int(f) - utmNorthBase, true, true
	case f > utmSouthBase && f <= utmSouthBase+60:
		return int(f) - utmSouthBase, false, true
	}
	return 0, false, false
}

// IsProjected reports whether distances in f are measured in meters.
func (f Frame) IsProjected() bool {
	_, _, ok := f.UTM()
	return ok
}

// Valid reports whether f is a frame this package can transform.
func (f Frame) Valid() bool {
	return f == Geographic || f.IsProjected()
}

// SRID returns the EPSG code as used by go-geom and PostGIS.
func (f Frame) SRID() int { return int(f) }

func (f Frame) String() string {
	return fmt.Sprintf("EPSG:%d", int(f))
}

// ValidateLonLat checks that lon/lat are finite and inside the WGS84 range.
// Loaders represent missing or non-numeric values as NaN, so they fail here
// too.
func ValidateLonLat(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return eris.Wrap(ErrInvalidCoordinate, "missing or non-numeric longitude/latitude")
	}
	if math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return eris.Wrap(ErrInvalidCoordinate, "infinite longitude/latitude")
	}
	if lon < -180 || lon > 180 {
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %v out of range [-180, 180]", lon)
	}
	if lat < -90 || lat > 90 {
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %v out of range [-90, 90]", lat)
	}
	return nil
}
