package astro

import (
	"math"

	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/unit"
)

// Ecliptic coordinates in degrees.
type Ecliptic struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Equatorial coordinates in degrees. Right ascension is in [0, 360).
type Equatorial struct {
	RightAscension float64 `json:"right_ascension"`
	Declination    float64 `json:"declination"`
}

// Horizontal coordinates in degrees. Azimuth is measured from north through
// east, in [0, 360).
type Horizontal struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// EclipticToEquatorial rotates ecliptic coordinates by the obliquity ε
// (degrees).
func EclipticToEquatorial(ecl Ecliptic, obliquity float64) Equatorial {
	sε, cε := unit.AngleFromDeg(obliquity).Sincos()
	α, δ := coord.EclToEq(unit.AngleFromDeg(ecl.Longitude), unit.AngleFromDeg(ecl.Latitude), sε, cε)
	return Equatorial{RightAscension: α.Deg(), Declination: δ.Deg()}
}

// EquatorialToEcliptic is the inverse rotation of EclipticToEquatorial.
func EquatorialToEcliptic(eq Equatorial, obliquity float64) Ecliptic {
	sε, cε := unit.AngleFromDeg(obliquity).Sincos()
	λ, β := coord.EqToEcl(unit.RAFromDeg(eq.RightAscension), unit.AngleFromDeg(eq.Declination), sε, cε)
	return Ecliptic{Longitude: NormalizeDegrees(λ.Deg()), Latitude: β.Deg()}
}

// EquatorialToHorizontal converts equatorial coordinates for an observer at
// the given latitude and local sidereal time (both degrees).
func EquatorialToHorizontal(eq Equatorial, latitude, lst float64) Horizontal {
	sH, cH := unit.AngleFromDeg(HourAngle(lst, eq.RightAscension)).Sincos()
	sφ, cφ := unit.AngleFromDeg(latitude).Sincos()
	sδ, cδ := unit.AngleFromDeg(eq.Declination).Sincos()

	alt := math.Asin(clamp(sφ*sδ+cφ*cδ*cH, -1, 1))
	az := math.Atan2(-cδ*sH, sδ*cφ-cδ*sφ*cH)
	return Horizontal{
		Altitude: unit.Angle(alt).Deg(),
		Azimuth:  NormalizeDegrees(unit.Angle(az).Deg()),
	}
}

// HourAngle returns LST − α normalised to (-180, 180].
func HourAngle(lst, ra float64) float64 {
	return NormalizeDegrees180(lst - ra)
}

// AngularSeparation returns the great-circle distance in degrees between two
// points given as (longitude-like, latitude-like) pairs in any one frame.
// The haversine form keeps precision for the small separations of a young
// crescent.
func AngularSeparation(lon1, lat1, lon2, lat2 float64) float64 {
	φ1 := unit.AngleFromDeg(lat1).Rad()
	φ2 := unit.AngleFromDeg(lat2).Rad()
	dφ := φ2 - φ1
	dλ := unit.AngleFromDeg(lon2 - lon1).Rad()
	a := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	return unit.Angle(2 * math.Asin(math.Sqrt(clamp(a, 0, 1)))).Deg()
}

// EquatorialSeparation is AngularSeparation for equatorial coordinates.
func EquatorialSeparation(a, b Equatorial) float64 {
	return AngularSeparation(a.RightAscension, a.Declination, b.RightAscension, b.Declination)
}

// HorizontalSeparation is AngularSeparation for horizontal coordinates.
func HorizontalSeparation(a, b Horizontal) float64 {
	return AngularSeparation(a.Azimuth, a.Altitude, b.Azimuth, b.Altitude)
}

// NormalizeDegrees wraps x into [0, 360).
func NormalizeDegrees(x float64) float64 {
	return PMod(x, 360)
}

// NormalizeDegrees180 wraps x into (-180, 180].
func NormalizeDegrees180(x float64) float64 {
	x = PMod(x, 360)
	if x > 180 {
		x -= 360
	}
	return x
}

// PMod is a modulus that is always non-negative for positive y.
func PMod(x, y float64) float64 {
	return unit.PMod(x, y)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
