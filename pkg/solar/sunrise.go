package solar

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	msolar "github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// siderealRate is degrees of hour angle per day of UT.
const siderealRate = 360.985647

// Estimate holds approximate UT Julian Days of the Sun crossing a target
// altitude on either side of transit.
type Estimate struct {
	Rise    float64
	Transit float64
	Set     float64
}

// EstimateRiseSet returns approximate crossings of altitude h0 (degrees) for
// the solar transit nearest noonJD. It uses the low-precision solar
// coordinates, which is plenty for seeding a root finder. ok is false when
// the Sun never reaches h0 (polar day or polar night); Transit is still set.
func EstimateRiseSet(noonJD, latitude, longitude, h0 float64) (est Estimate, ok bool) {
	jde := noonJD + astro.DeltaT(noonJD)/astro.SecondsPerDay
	α, δ := msolar.ApparentEquatorial(jde)

	// Hour angle at noonJD, then slide to the meridian crossing.
	H := astro.HourAngle(astro.GreenwichSiderealTime(noonJD)+longitude, α.Deg())
	est.Transit = noonJD - H/siderealRate

	sφ, cφ := unit.AngleFromDeg(latitude).Sincos()
	cosH := (unit.AngleFromDeg(h0).Sin() - sφ*δ.Sin()) / (cφ * δ.Cos())

	// Sun never sets (midnight sun) or never rises (polar night).
	if cosH < -1 || cosH > 1 || math.IsNaN(cosH) {
		return est, false
	}

	H0 := unit.Angle(math.Acos(cosH)).Deg()
	est.Rise = est.Transit - H0/siderealRate
	est.Set = est.Transit + H0/siderealRate
	return est, true
}

// NeverRises reports, for a failed estimate, whether the Sun stays below h0
// all day rather than above it.
func NeverRises(noonJD, latitude, h0 float64) bool {
	jde := noonJD + astro.DeltaT(noonJD)/astro.SecondsPerDay
	_, δ := msolar.ApparentEquatorial(jde)
	// Maximum altitude at transit.
	return 90-math.Abs(latitude-δ.Deg()) < h0
}
