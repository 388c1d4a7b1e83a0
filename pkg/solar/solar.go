// Package solar computes the apparent geocentric position of the Sun and
// coarse rise/set estimates used to seed the event solver.
package solar

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/unit"
)

const (
	// AU is the astronomical unit in kilometers.
	AU = 149597870.7

	// semidiameterAt1AU is the solar semidiameter in arcseconds at 1 AU.
	semidiameterAt1AU = 959.63

	// aberrationConstant is the annual aberration in arcseconds scaled to
	// 1 AU.
	aberrationConstant = 20.4898
)

// Position is the Sun's geocentric position at one Julian Ephemeris Day.
// Angles are degrees.
type Position struct {
	JDE float64 `json:"jde"`

	// Geometric longitude and latitude, FK5 frame, mean equinox of date.
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	Distance   float64 `json:"distance_au"`
	DistanceKm float64 `json:"distance_km"`

	Aberration float64        `json:"aberration"`
	Nutation   astro.Nutation `json:"nutation"`

	// Apparent longitude: geometric + nutation + aberration.
	ApparentLongitude float64          `json:"apparent_longitude"`
	Equatorial        astro.Equatorial `json:"equatorial"`
	// Geometric (mean) equatorial coordinates: no nutation or aberration.
	MeanEquatorial astro.Equatorial `json:"mean_equatorial"`
}

// Ecliptic returns the geometric ecliptic coordinates.
func (p Position) Ecliptic() astro.Ecliptic {
	return astro.Ecliptic{Longitude: p.Longitude, Latitude: p.Latitude}
}

// ApparentEcliptic returns the apparent ecliptic coordinates.
func (p Position) ApparentEcliptic() astro.Ecliptic {
	return astro.Ecliptic{Longitude: p.ApparentLongitude, Latitude: p.Latitude}
}

// Apparent computes the apparent geocentric position of the Sun.
func Apparent(jde float64) Position {
	λ, β, r := Geometric(jde)
	nut := astro.NutationAndObliquity(jde)
	aberration := -aberrationConstant / r / 3600

	p := Position{
		JDE:               jde,
		Longitude:         λ,
		Latitude:          β,
		Distance:          r,
		DistanceKm:        r * AU,
		Aberration:        aberration,
		Nutation:          nut,
		ApparentLongitude: astro.NormalizeDegrees(λ + nut.Longitude + aberration),
	}
	p.Equatorial = astro.EclipticToEquatorial(p.ApparentEcliptic(), nut.TrueObliquity)
	p.MeanEquatorial = astro.EclipticToEquatorial(p.Ecliptic(), nut.MeanObliquity)
	return p
}

// Geometric returns the Sun's geometric geocentric longitude and latitude in
// degrees (FK5, mean equinox of date) and its distance in AU.
func Geometric(jde float64) (λ, β, r float64) {
	τ := base.J2000Century(jde) / 10
	L := sumSeries(earthL, τ)
	B := sumSeries(earthB, τ)
	R := sumSeries(earthR, τ)

	// Heliocentric Earth to geocentric Sun.
	Θ := unit.Angle(L).Deg() + 180
	β = -unit.Angle(B).Deg()

	// Conversion to the FK5 system.
	T := τ * 10
	λp := unit.AngleFromDeg(Θ - 1.397*T - 0.00031*T*T)
	Θ += -0.09033 / 3600
	β += 0.03916 / 3600 * (λp.Cos() - λp.Sin())

	return astro.NormalizeDegrees(Θ), β, R
}

// Semidiameter returns the Sun's apparent semidiameter in degrees at the
// given distance in AU.
func Semidiameter(distanceAU float64) float64 {
	return semidiameterAt1AU / distanceAU / 3600
}

func sumSeries(series [][]term, τ float64) float64 {
	coeffs := make([]float64, len(series))
	for i, terms := range series {
		var s float64
		for _, t := range terms {
			s += t.a * math.Cos(t.b+t.c*τ)
		}
		coeffs[i] = s
	}
	return base.Horner(τ, coeffs...) * 1e-8
}
