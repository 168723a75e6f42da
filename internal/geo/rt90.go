// Package geo converts RT90 grid coordinates embedded in alarm messages to
// WGS84 and renders OpenStreetMap links for notification enrichment.
package geo

import "math"

// RT90 2.5 gon V expressed directly on the GRS80 ellipsoid, per
// Lantmäteriet's published parameter set for transformation to WGS84
// without a separate datum shift. x is northing, y is easting.
const (
	axis            = 6378137.0
	flattening      = 1.0 / 298.257222101
	centralMeridian = 15.0 + 48.0/60.0 + 22.624306/3600.0
	scale           = 1.00000561024
	falseNorthing   = -667.711
	falseEasting    = 1500064.274
)

// ToWGS84 converts an RT90 2.5 gon V coordinate pair to WGS84 latitude and
// longitude in degrees, rounded to 6 decimals. The conversion is the
// inverse Gauss conformal (transverse Mercator) projection using Krüger's
// series. Deterministic; the projection constants are fixed at build time.
func ToWGS84(x, y int) (lat, lon float64) {
	e2 := flattening * (2.0 - flattening)
	n := flattening / (2.0 - flattening)
	aRoof := axis / (1.0 + n) * (1.0 + n*n/4.0 + n*n*n*n/64.0)

	delta1 := n/2.0 - 2.0*n*n/3.0 + 37.0*n*n*n/96.0 - n*n*n*n/360.0
	delta2 := n*n/48.0 + n*n*n/15.0 - 437.0*n*n*n*n/1440.0
	delta3 := 17.0*n*n*n/480.0 - 37.0*n*n*n*n/840.0
	delta4 := 4397.0 * n * n * n * n / 161280.0

	astar := e2 + e2*e2 + e2*e2*e2 + e2*e2*e2*e2
	bstar := -(7.0*e2*e2 + 17.0*e2*e2*e2 + 30.0*e2*e2*e2*e2) / 6.0
	cstar := (224.0*e2*e2*e2 + 889.0*e2*e2*e2*e2) / 120.0
	dstar := -(4279.0 * e2 * e2 * e2 * e2) / 1260.0

	lambdaZero := centralMeridian * math.Pi / 180.0
	xi := (float64(x) - falseNorthing) / (scale * aRoof)
	eta := (float64(y) - falseEasting) / (scale * aRoof)

	xiPrim := xi -
		delta1*math.Sin(2.0*xi)*math.Cosh(2.0*eta) -
		delta2*math.Sin(4.0*xi)*math.Cosh(4.0*eta) -
		delta3*math.Sin(6.0*xi)*math.Cosh(6.0*eta) -
		delta4*math.Sin(8.0*xi)*math.Cosh(8.0*eta)
	etaPrim := eta -
		delta1*math.Cos(2.0*xi)*math.Sinh(2.0*eta) -
		delta2*math.Cos(4.0*xi)*math.Sinh(4.0*eta) -
		delta3*math.Cos(6.0*xi)*math.Sinh(6.0*eta) -
		delta4*math.Cos(8.0*xi)*math.Sinh(8.0*eta)

	phiStar := math.Asin(math.Sin(xiPrim) / math.Cosh(etaPrim))
	deltaLambda := math.Atan(math.Sinh(etaPrim) / math.Cos(xiPrim))

	sinPhi := math.Sin(phiStar)
	latRad := phiStar + sinPhi*math.Cos(phiStar)*
		(astar+
			bstar*sinPhi*sinPhi+
			cstar*sinPhi*sinPhi*sinPhi*sinPhi+
			dstar*sinPhi*sinPhi*sinPhi*sinPhi*sinPhi*sinPhi)
	lonRad := lambdaZero + deltaLambda

	return round6(latRad * 180.0 / math.Pi), round6(lonRad * 180.0 / math.Pi)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
