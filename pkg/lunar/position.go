package lunar

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/unit"
)

// semidiameterConstant gives the geocentric semidiameter in arcseconds when
// divided by the distance in kilometers.
const semidiameterConstant = 358473400

// Position is the Moon's geocentric position at one Julian Ephemeris Day.
// Angles are degrees.
type Position struct {
	JDE float64 `json:"jde"`

	// Geometric longitude and latitude, mean equinox of date.
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	DistanceKm float64 `json:"distance_km"`

	Nutation          astro.Nutation   `json:"nutation"`
	ApparentLongitude float64          `json:"apparent_longitude"`
	Equatorial        astro.Equatorial `json:"equatorial"`
	MeanEquatorial    astro.Equatorial `json:"mean_equatorial"`

	HorizontalParallax float64 `json:"horizontal_parallax"`
}

// Ecliptic returns the geometric ecliptic coordinates.
func (p Position) Ecliptic() astro.Ecliptic {
	return astro.Ecliptic{Longitude: p.Longitude, Latitude: p.Latitude}
}

// ApparentEcliptic returns ecliptic coordinates including nutation in
// longitude.
func (p Position) ApparentEcliptic() astro.Ecliptic {
	return astro.Ecliptic{Longitude: p.ApparentLongitude, Latitude: p.Latitude}
}

// Apparent computes the Moon's apparent geocentric position from the
// Chapter 47 periodic series.
func Apparent(jde float64) Position {
	λ, β, Δ := moonposition.Position(jde)
	nut := astro.NutationAndObliquity(jde)

	p := Position{
		JDE:                jde,
		Longitude:          astro.NormalizeDegrees(λ.Deg()),
		Latitude:           β.Deg(),
		DistanceKm:         Δ,
		Nutation:           nut,
		HorizontalParallax: moonposition.Parallax(Δ).Deg(),
	}
	p.ApparentLongitude = astro.NormalizeDegrees(p.Longitude + nut.Longitude)
	p.Equatorial = astro.EclipticToEquatorial(p.ApparentEcliptic(), nut.TrueObliquity)
	p.MeanEquatorial = astro.EclipticToEquatorial(p.Ecliptic(), nut.MeanObliquity)
	return p
}

// Semidiameter returns the geocentric semidiameter in degrees.
func Semidiameter(distanceKm float64) float64 {
	return semidiameterConstant / distanceKm / 3600
}

// PhaseAngle returns the selenocentric Sun-Earth angle i in degrees given
// the geocentric elongation ψ and both distances in kilometers.
func PhaseAngle(elongation, sunKm, moonKm float64) float64 {
	sψ, cψ := unit.AngleFromDeg(elongation).Sincos()
	return unit.Angle(math.Atan2(sunKm*sψ, moonKm-sunKm*cψ)).Deg()
}

// IlluminatedFraction returns the illuminated fraction k in [0, 1] for a
// phase angle in degrees.
func IlluminatedFraction(phaseAngle float64) float64 {
	return base.Illuminated(unit.AngleFromDeg(phaseAngle))
}
