// Package topo converts geocentric positions to what an observer on the
// Earth's surface sees: parallax, semidiameter, refraction and horizon dip.
package topo

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/parallax"
	"github.com/soniakeys/unit"
)

// Body radii in kilometers.
const (
	EarthRadiusKm = 6378.14
	MoonRadiusKm  = 1737.4
	SunRadiusKm   = 696000.0
)

// HorizontalParallax returns the equatorial horizontal parallax in degrees of
// a body at the given geocentric distance.
func HorizontalParallax(distanceKm float64) float64 {
	return unit.Angle(math.Asin(EarthRadiusKm / distanceKm)).Deg()
}

// HorizontalParallaxAU is the small-angle form for distances in AU, used for
// the Sun.
func HorizontalParallaxAU(distanceAU float64) float64 {
	return parallax.Horizontal(distanceAU).Deg()
}

// ParallaxConstants returns ρ·sin φ' and ρ·cos φ' for the observer, in
// Earth equatorial radii.
func ParallaxConstants(latitude, elevation float64) (ρsφ, ρcφ float64) {
	return globe.Earth76.ParallaxConstants(unit.AngleFromDeg(latitude), elevation)
}

// Topocentric is a body position corrected for the observer's displacement
// from the geocenter.
type Topocentric struct {
	Equatorial astro.Equatorial `json:"equatorial"`
	DistanceKm float64          `json:"distance_km"`
}

// ApplyParallax shifts geocentric equatorial coordinates to the observer at
// loc, for local sidereal time lst (degrees). It is the rigorous vector form
// of the parallax correction and is valid at any distance; as the distance
// grows the shift vanishes.
func ApplyParallax(geo astro.Equatorial, distanceKm float64, loc astro.Location, lst float64) Topocentric {
	ρsφ, ρcφ := ParallaxConstants(loc.Latitude, loc.Elevation)

	sα, cα := unit.AngleFromDeg(geo.RightAscension).Sincos()
	sδ, cδ := unit.AngleFromDeg(geo.Declination).Sincos()
	sθ, cθ := unit.AngleFromDeg(lst).Sincos()

	x := distanceKm*cδ*cα - EarthRadiusKm*ρcφ*cθ
	y := distanceKm*cδ*sα - EarthRadiusKm*ρcφ*sθ
	z := distanceKm*sδ - EarthRadiusKm*ρsφ

	d := math.Sqrt(x*x + y*y + z*z)
	return Topocentric{
		Equatorial: astro.Equatorial{
			RightAscension: astro.NormalizeDegrees(unit.Angle(math.Atan2(y, x)).Deg()),
			Declination:    unit.Angle(math.Asin(z / d)).Deg(),
		},
		DistanceKm: d,
	}
}

// Semidiameter returns the angular radius in degrees of a body of the given
// radius seen from the given distance.
func Semidiameter(distanceKm, radiusKm float64) float64 {
	return unit.Angle(math.Asin(radiusKm / distanceKm)).Deg()
}

// TopocentricSemidiameter scales a geocentric semidiameter to the
// observer's distance.
func TopocentricSemidiameter(geocentricSD, geocentricKm, topocentricKm float64) float64 {
	return geocentricSD * geocentricKm / topocentricKm
}

// Dip returns the depression of the sea horizon in degrees for an observer
// at the given elevation in meters.
func Dip(elevation float64) float64 {
	if elevation <= 0 {
		return 0
	}
	return 0.0293 * math.Sqrt(elevation)
}
