package domain

import "math"

// Israeli Transverse Mercator grid (EPSG:2039), defined on GRS80 over the
// Israel 1993 datum.
const (
	itmScale         = 1.0000067
	itmFalseEasting  = 219529.584
	itmFalseNorthing = 626907.390
	itmOriginLat     = 31.734393611111 // 31°44'03.817"
	itmOriginLon     = 35.204516944444 // 35°12'16.261"
)

type ellipsoid struct {
	a float64 // semi-major axis, meters
	f float64 // flattening
}

var (
	grs80 = ellipsoid{a: 6378137, f: 1 / 298.257222101}
	wgs84 = ellipsoid{a: 6378137, f: 1 / 298.257223563}
)

// helmert is a seven-parameter similarity transform in the position vector
// convention. Rotations are in arc-seconds, scale in ppm.
type helmert struct {
	tx, ty, tz float64
	rx, ry, rz float64
	ppm        float64
}

var israel93ToWGS84 = helmert{
	tx: -24.0024, ty: -17.1032, tz: -17.8444,
	rx: -0.33077, ry: -1.85269, rz: 1.66969,
	ppm: 5.4248,
}

// FromITM converts an ITM easting/northing in meters to WGS-84 coordinates.
func FromITM(easting, northing float64) Coordinates {
	lat, lon := grs80.unproject(easting, northing)
	x, y, z := grs80.toECEF(lat, lon)
	x, y, z = israel93ToWGS84.apply(x, y, z)
	lat, lon = wgs84.fromECEF(x, y, z)
	return Coordinates{
		Latitude:  RoundCoordinate(degrees(lat)),
		Longitude: RoundCoordinate(degrees(lon)),
	}
}

// ToITM converts WGS-84 coordinates to an ITM easting/northing in meters.
func ToITM(c Coordinates) (easting, northing float64) {
	x, y, z := wgs84.toECEF(radians(c.Latitude), radians(c.Longitude))
	x, y, z = israel93ToWGS84.inverse().apply(x, y, z)
	lat, lon := grs80.fromECEF(x, y, z)
	return grs80.project(lat, lon)
}

func (e ellipsoid) e2() float64 {
	return e.f * (2 - e.f)
}

// meridionalArc is the distance along the meridian from the equator to phi.
func (e ellipsoid) meridionalArc(phi float64) float64 {
	e2 := e.e2()
	e4 := e2 * e2
	e6 := e4 * e2
	return e.a * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// project applies the forward Transverse Mercator series. Angles in radians.
func (e ellipsoid) project(lat, lon float64) (easting, northing float64) {
	e2 := e.e2()
	ep2 := e2 / (1 - e2)

	sinPhi, cosPhi := math.Sincos(lat)
	tanPhi := sinPhi / cosPhi

	n := e.a / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := (lon - radians(itmOriginLon)) * cosPhi
	m := e.meridionalArc(lat) - e.meridionalArc(radians(itmOriginLat))

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	easting = itmFalseEasting + itmScale*n*(a+
		(1-t+c)*a3/6+
		(5-18*t+t*t+72*c-58*ep2)*a5/120)
	northing = itmFalseNorthing + itmScale*(m+n*tanPhi*(a2/2+
		(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	return easting, northing
}

// unproject applies the inverse Transverse Mercator series. Returns radians.
func (e ellipsoid) unproject(easting, northing float64) (lat, lon float64) {
	e2 := e.e2()
	ep2 := e2 / (1 - e2)
	sqrt1e2 := math.Sqrt(1 - e2)
	e1 := (1 - sqrt1e2) / (1 + sqrt1e2)

	m := e.meridionalArc(radians(itmOriginLat)) + (northing-itmFalseNorthing)/itmScale
	mu := m / (e.a * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu +
		(3*e1/2-27*math.Pow(e1, 3)/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*math.Pow(e1, 4)/32)*math.Sin(4*mu) +
		(151*math.Pow(e1, 3)/96)*math.Sin(6*mu) +
		(1097*math.Pow(e1, 4)/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sincos(phi1)
	tanPhi1 := sinPhi1 / cosPhi1

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	w := 1 - e2*sinPhi1*sinPhi1
	n1 := e.a / math.Sqrt(w)
	r1 := e.a * (1 - e2) / math.Pow(w, 1.5)
	d := (easting - itmFalseEasting) / (n1 * itmScale)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	lat = phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lon = radians(itmOriginLon) + (d-
		(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cosPhi1
	return lat, lon
}

// toECEF converts geodetic coordinates on the ellipsoid surface (h=0) to
// earth-centred cartesian meters.
func (e ellipsoid) toECEF(lat, lon float64) (x, y, z float64) {
	e2 := e.e2()
	sinPhi, cosPhi := math.Sincos(lat)
	sinLam, cosLam := math.Sincos(lon)
	n := e.a / math.Sqrt(1-e2*sinPhi*sinPhi)
	return n * cosPhi * cosLam, n * cosPhi * sinLam, n * (1 - e2) * sinPhi
}

// fromECEF converts earth-centred cartesian meters to geodetic radians,
// iterating the latitude until it settles.
func (e ellipsoid) fromECEF(x, y, z float64) (lat, lon float64) {
	e2 := e.e2()
	p := math.Hypot(x, y)
	lon = math.Atan2(y, x)
	lat = math.Atan2(z, p*(1-e2))
	for range 6 {
		sinPhi := math.Sin(lat)
		n := e.a / math.Sqrt(1-e2*sinPhi*sinPhi)
		h := p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-e2*n/(n+h)))
	}
	return lat, lon
}

func (h helmert) apply(x, y, z float64) (float64, float64, float64) {
	rx, ry, rz := arcSeconds(h.rx), arcSeconds(h.ry), arcSeconds(h.rz)
	s := 1 + h.ppm*1e-6
	return h.tx + s*(x-rz*y+ry*z),
		h.ty + s*(rz*x+y-rx*z),
		h.tz + s*(-ry*x+rx*y+z)
}

func (h helmert) inverse() helmert {
	return helmert{
		tx: -h.tx, ty: -h.ty, tz: -h.tz,
		rx: -h.rx, ry: -h.ry, rz: -h.rz,
		ppm: -h.ppm,
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

func arcSeconds(sec float64) float64 { return radians(sec / 3600) }
