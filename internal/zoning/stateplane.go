package zoning

// WGS-84 → Texas North-Central (EPSG:2276) Lambert Conformal Conic, US-feet.
// The city's zoning shapefiles are published in this CRS; parcel coordinates are
// converted before point-in-polygon tests.

import "math"

const (
	spFalseEasting  = 1968500.0
	spFalseNorthing = 6561666.666666666
	phi0Deg         = 31.66666666666667 // latitude of origin
	phi1Deg         = 32.13333333333333 // standard parallel 1
	phi2Deg         = 33.96666666666667 // standard parallel 2
	lon0Deg         = -98.5             // central meridian

	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // NAD83 semi-major axis (metres)
	e2         = 0.00669438002290   // NAD83 eccentricity squared
)

// lcc holds the cone constants derived from the projection parameters.
type lcc struct {
	n, f, rho0 float64
}

var txNorthCentral = newLCC()

func newLCC() lcc {
	phi1 := phi1Deg * math.Pi / 180
	phi2 := phi2Deg * math.Pi / 180
	phi0 := phi0Deg * math.Pi / 180

	m := func(phi float64) float64 {
		return math.Cos(phi) / math.Sqrt(1-e2*math.Sin(phi)*math.Sin(phi))
	}
	t := func(phi float64) float64 {
		e := math.Sqrt(e2)
		return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
	}

	m1, m2 := m(phi1), m(phi2)
	t1, t2, t0 := t(phi1), t(phi2), t(phi0)

	n := math.Log(m1/m2) / math.Log(t1/t2)
	f := semiMajorM * ftPerMeter * m1 / (n * math.Pow(t1, n))
	return lcc{n: n, f: f, rho0: f * math.Pow(t0, n)}
}

// ToStatePlane converts decimal degrees to (northing, easting) in US feet, the
// same (y, x) ordering the polygon rings use.
func ToStatePlane(latDeg, lonDeg float64) (northingFt, eastingFt float64) {
	p := txNorthCentral
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180
	lambda0 := lon0Deg * math.Pi / 180

	e := math.Sqrt(e2)
	t := math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
	rho := p.f * math.Pow(t, p.n)
	theta := p.n * (lambda - lambda0)

	eastingFt = rho*math.Sin(theta) + spFalseEasting
	northingFt = p.rho0 - rho*math.Cos(theta) + spFalseNorthing
	return
}
