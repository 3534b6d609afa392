package coord

import (
	"fmt"
	"math"
)

// Ellipsoid is a reference ellipsoid given by its semi-major axis and inverse flattening.
type Ellipsoid struct {
	A    float64
	InvF float64
}

var (
	WGS84    = Ellipsoid{A: 6378137, InvF: 298.257223563}
	CGCS2000 = Ellipsoid{A: 6378137, InvF: 298.257222101}
)

// TransverseMercator implements Gauss-Kruger / UTM style projections using the
// Kruger n-series to fourth order (sub-millimetre within a few degrees of the
// central meridian).
//
// Reference: Karney, "Transverse Mercator with an accuracy of a few nanometers", J. Geodesy 85 (2011).
type TransverseMercator struct {
	Code            int
	Label           string
	Ellipsoid       Ellipsoid
	CentralMeridian float64 // degrees
	ScaleFactor     float64
	FalseEasting    float64
	FalseNorthing   float64

	ready bool
	e     float64
	rectA float64 // rectifying radius
	alpha [4]float64
	beta  [4]float64
	delta [4]float64
}

// maxLonOffset is where the projection diverges. Points short of it are
// projected even far outside the nominal zone, matching PROJ's etmerc.
const maxLonOffset = 90.0

func (tm *TransverseMercator) EPSG() int    { return tm.Code }
func (tm *TransverseMercator) Name() string { return tm.Label }

func (tm *TransverseMercator) prepare() {
	if tm.ready {
		return
	}
	f := 1 / tm.Ellipsoid.InvF
	n := f / (2 - f)
	n2, n3, n4 := n*n, n*n*n, n*n*n*n

	tm.e = math.Sqrt(f * (2 - f))
	tm.rectA = tm.Ellipsoid.A / (1 + n) * (1 + n2/4 + n4/64)
	tm.alpha = [4]float64{
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180,
		13*n2/48 - 3*n3/5 + 557*n4/1440,
		61*n3/240 - 103*n4/140,
		49561 * n4 / 161280,
	}
	tm.beta = [4]float64{
		n/2 - 2*n2/3 + 37*n3/96 - n4/360,
		n2/48 + n3/15 - 437*n4/1440,
		17*n3/480 - 37*n4/840,
		4397 * n4 / 161280,
	}
	tm.delta = [4]float64{
		2*n - 2*n2/3 - 2*n3 + 116*n4/45,
		7*n2/3 - 8*n3/5 - 227*n4/45,
		56*n3/15 - 136*n4/35,
		4279 * n4 / 630,
	}
	tm.ready = true
}

// FromWGS84 projects longitude/latitude (degrees) to easting/northing.
func (tm *TransverseMercator) FromWGS84(lon, lat float64) (x, y float64, err error) {
	tm.prepare()
	dLon := lon - tm.CentralMeridian
	if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(dLon) >= maxLonOffset || math.Abs(lat) >= 90 {
		return 0, 0, fmt.Errorf("%s: point (%g, %g) outside projection domain: %w", tm.Label, lon, lat, ErrProjection)
	}

	phi := lat * math.Pi / 180
	lam := dLon * math.Pi / 180

	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - tm.e*math.Atanh(tm.e*sinPhi))
	xiP := math.Atan2(t, math.Cos(lam))
	etaP := math.Atanh(math.Sin(lam) / math.Sqrt(1+t*t))

	xi, eta := xiP, etaP
	for j, a := range tm.alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	x = tm.FalseEasting + tm.ScaleFactor*tm.rectA*eta
	y = tm.FalseNorthing + tm.ScaleFactor*tm.rectA*xi
	if !finite(x) || !finite(y) {
		return 0, 0, fmt.Errorf("%s: point (%g, %g) does not project: %w", tm.Label, lon, lat, ErrProjection)
	}
	return x, y, nil
}

// ToWGS84 converts easting/northing back to longitude/latitude (degrees).
func (tm *TransverseMercator) ToWGS84(x, y float64) (lon, lat float64, err error) {
	tm.prepare()
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, 0, fmt.Errorf("%s: invalid coordinate: %w", tm.Label, ErrProjection)
	}
	xi := (y - tm.FalseNorthing) / (tm.ScaleFactor * tm.rectA)
	eta := (x - tm.FalseEasting) / (tm.ScaleFactor * tm.rectA)

	xiP, etaP := xi, eta
	for j, b := range tm.beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j, d := range tm.delta {
		phi += d * math.Sin(2*float64(j+1)*chi)
	}
	lam := math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	lon = tm.CentralMeridian + lam*180/math.Pi
	lat = phi * 180 / math.Pi
	if !finite(lon) || !finite(lat) {
		return 0, 0, fmt.Errorf("%s: (%g, %g) does not unproject: %w", tm.Label, x, y, ErrProjection)
	}
	return lon, lat, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
