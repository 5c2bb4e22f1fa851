package geo

import (
	"math"
)

// WGS84 ellipsoid and UTM constants.
const (
	wgs84A     = 6378137.0
	wgs84F     = 1 / 298.257223563
	utmK0      = 0.9996
	utmFalseE  = 500000.0
	utmFalseNS = 10000000.0

	// UTM is undefined toward the poles; UPS covers those areas.
	utmMinLat = -80.0
	utmMaxLat = 84.0
)

var (
	e2  = wgs84F * (2 - wgs84F)
	e4  = e2 * e2
	e6  = e4 * e2
	ep2 = e2 / (1 - e2)
	e1  = (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
)

// ZoneFor returns the UTM zone number (1..60) containing lon.
func ZoneFor(lon float64) int {
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	if zone < 1 {
		zone = 1
	}
	return zone
}

// MaxMeridianOffset is the largest longitude distance in degrees from a
// zone's central meridian that Forward accepts: the zone itself plus one
// neighbouring zone on each side.
const MaxMeridianOffset = 9.0

func centralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}

// meridianDelta is the signed longitude difference in degrees between lon and
// the central meridian of zone, wrapped across the antimeridian.
func meridianDelta(lon float64, zone int) float64 {
	d := math.Mod(lon-centralMeridian(zone), 360)
	switch {
	case d > 180:
		d -= 360
	case d < -180:
		d += 360
	}
	return d
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// meridianArc is the distance along the central meridian from the equator
// to latitude phi (radians).
func meridianArc(phi float64) float64 {
	return wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// utmForward projects lon/lat degrees into easting/northing meters.
func utmForward(lon, lat float64, zone int, north bool) (x, y float64) {
	phi := deg2rad(lat)

	sin, cos := math.Sin(phi), math.Cos(phi)
	tan := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sin*sin)
	t := tan * tan
	c := ep2 * cos * cos
	a := cos * deg2rad(meridianDelta(lon, zone))
	m := meridianArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x = utmK0*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + utmFalseE
	y = utmK0 * (m + n*tan*(a2/2+(5-t+9*c+4*c*c)*a4/24+(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if !north {
		y += utmFalseNS
	}
	return x, y
}

// utmInverse converts easting/northing meters back to lon/lat degrees.
func utmInverse(x, y float64, zone int, north bool) (lon, lat float64) {
	x -= utmFalseE
	if !north {
		y -= utmFalseNS
	}

	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sin1, cos1 := math.Sin(phi1), math.Cos(phi1)
	tan1 := math.Tan(phi1)

	n1 := wgs84A / math.Sqrt(1-e2*sin1*sin1)
	t1 := tan1 * tan1
	c1 := ep2 * cos1 * cos1
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sin1*sin1, 1.5)
	d := x / (n1 * utmK0)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tan1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lam := (d - (1+2*t1+c1)*d3/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120) / cos1

	lon = centralMeridian(zone) + rad2deg(lam)
	switch {
	case lon > 180:
		lon -= 360
	case lon < -180:
		lon += 360
	}
	return lon, rad2deg(phi)
}
