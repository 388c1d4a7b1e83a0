// Package lunar computes the Moon's geocentric position, phase and the
// orientation of the crescent. Positions come from the Chapter 47 series
// of Meeus' Astronomical Algorithms (ELP-2000/82 truncated), accurate to
// about 10" in longitude.
package lunar

import (
	"math"
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/solar"
	"github.com/soniakeys/unit"
)

// SynodicMonth is the average length of the lunar cycle in days
const SynodicMonth = 29.530588853

// CrescentAngle contains the full set of computed orientation values
type CrescentAngle struct {
	BrightLimbAngle  float64 `json:"bright_limb_angle"` // χ: position angle of bright limb (degrees, from celestial N toward E)
	TerminatorAngle  float64 `json:"terminator_angle"`  // θ: terminator orientation in celestial coords (degrees)
	ParallacticAngle float64 `json:"parallactic_angle"` // q: parallactic angle of the Moon (degrees)
	LocalTerminator  float64 `json:"local_terminator"`  // θ_local: terminator angle relative to observer's local vertical (degrees)
	Rotation         float64 `json:"rotation"`          // clockwise rotation of an upright icon (degrees)
	PhaseAngle       float64 `json:"phase_angle"`       // i: Sun-Moon-Earth angle (degrees)
	Illumination     float64 `json:"illumination"`      // k: illuminated fraction [0,1]
}

// MoonPhase contains calculated moon phase information
type MoonPhase struct {
	Phase        float64 `json:"phase"`        // Phase fraction [0,1): 0=new, 0.5=full
	Elongation   float64 `json:"elongation"`   // Sun→Moon ecliptic longitude difference in degrees [0,360)
	Illumination float64 `json:"illumination"` // Illuminated fraction [0,1]: 0=new, 1=full
	AgeDays      float64 `json:"age_days"`     // Mean age, Phase × SynodicMonth
	IsWaxing     bool    `json:"is_waxing"`    // True when moon is waxing (getting fuller)
	PhaseName    string  `json:"phase_name"`   // Human-readable phase name
}

// Calculate computes the moon phase for a given UTC timestamp
func Calculate(t time.Time) MoonPhase {
	jde := astro.InstantFromTime(t).TT
	sun := solar.Apparent(jde)
	moon := Apparent(jde)

	elongation := astro.NormalizeDegrees(moon.ApparentLongitude - sun.ApparentLongitude)
	sep := astro.AngularSeparation(moon.ApparentLongitude, moon.Latitude, sun.ApparentLongitude, sun.Latitude)
	illumination := IlluminatedFraction(PhaseAngle(sep, sun.DistanceKm, moon.DistanceKm))
	phase := elongation / 360.0
	isWaxing := elongation < 180

	return MoonPhase{
		Phase:        phase,
		Elongation:   elongation,
		Illumination: illumination,
		AgeDays:      phase * SynodicMonth,
		IsWaxing:     isWaxing,
		PhaseName:    phaseName(illumination, isWaxing),
	}
}

// phaseName returns the 8-phase name based on illumination percentage and direction
func phaseName(illumination float64, isWaxing bool) string {
	switch {
	case illumination < 0.01:
		return "New Moon"
	case illumination > 0.99:
		return "Full Moon"
	case illumination >= 0.49 && illumination <= 0.51:
		if isWaxing {
			return "First Quarter"
		}
		return "Third Quarter"
	case illumination < 0.50:
		if isWaxing {
			return "Waxing Crescent"
		}
		return "Waning Crescent"
	default:
		if isWaxing {
			return "Waxing Gibbous"
		}
		return "Waning Gibbous"
	}
}

// BrightLimbAngle returns the position angle χ of the Moon's bright limb,
// measured from celestial north toward east, in degrees [0, 360).
func BrightLimbAngle(sun, moon astro.Equatorial) float64 {
	sδ0, cδ0 := unit.AngleFromDeg(sun.Declination).Sincos()
	sδ, cδ := unit.AngleFromDeg(moon.Declination).Sincos()
	sΔα, cΔα := unit.AngleFromDeg(sun.RightAscension - moon.RightAscension).Sincos()
	χ := math.Atan2(cδ0*sΔα, sδ0*cδ-cδ0*sδ*cΔα)
	return astro.NormalizeDegrees(unit.Angle(χ).Deg())
}

// ParallacticAngle returns the angle q between the directions to the
// celestial pole and to the zenith at the body's position, in degrees.
func ParallacticAngle(body astro.Equatorial, latitude, lst float64) float64 {
	sH, cH := unit.AngleFromDeg(astro.HourAngle(lst, body.RightAscension)).Sincos()
	sδ, cδ := unit.AngleFromDeg(body.Declination).Sincos()
	q := math.Atan2(sH, unit.AngleFromDeg(latitude).Tan()*cδ-sδ*cH)
	return unit.Angle(q).Deg()
}

// CalculateCrescentAngle computes the full crescent orientation for an observer.
// Returns a CrescentAngle with the rotation angle to apply to a moon phase icon
// so that the terminator matches the real observed orientation in the sky.
//
// latDeg and lonDeg are the observer's geographic latitude and longitude in degrees
// (east positive). If both are zero, the parallactic angle correction is skipped
// and the geocentric terminator angle is returned.
func CalculateCrescentAngle(t time.Time, latDeg, lonDeg float64) CrescentAngle {
	instant := astro.InstantFromTime(t)
	sun := solar.Apparent(instant.TT)
	moon := Apparent(instant.TT)

	elongation := astro.EquatorialSeparation(sun.Equatorial, moon.Equatorial)
	i := PhaseAngle(elongation, sun.DistanceKm, moon.DistanceKm)
	χ := BrightLimbAngle(sun.Equatorial, moon.Equatorial)
	θ := astro.NormalizeDegrees(χ + 90)

	result := CrescentAngle{
		BrightLimbAngle: χ,
		TerminatorAngle: θ,
		PhaseAngle:      i,
		Illumination:    IlluminatedFraction(i),
	}

	if latDeg == 0 && lonDeg == 0 {
		result.Rotation = -θ
		result.LocalTerminator = θ
		return result
	}

	q := ParallacticAngle(moon.Equatorial, latDeg, astro.LocalSiderealTime(instant.UT, lonDeg))
	local := astro.NormalizeDegrees(θ - q)

	result.ParallacticAngle = q
	result.LocalTerminator = local
	result.Rotation = -local

	return result
}
