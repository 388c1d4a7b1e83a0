package astro

import (
	"github.com/soniakeys/meeus/v3/sidereal"
)

// GreenwichSiderealTime returns apparent sidereal time at Greenwich in
// degrees for a UT Julian Day.
func GreenwichSiderealTime(jdUT float64) float64 {
	return sidereal.Apparent(jdUT).Angle().Deg()
}

// GreenwichMeanSiderealTime returns mean sidereal time at Greenwich in
// degrees.
func GreenwichMeanSiderealTime(jdUT float64) float64 {
	return sidereal.Mean(jdUT).Angle().Deg()
}

// LocalSiderealTime returns apparent local sidereal time in degrees [0, 360)
// for an east-positive longitude.
func LocalSiderealTime(jdUT, longitude float64) float64 {
	return NormalizeDegrees(GreenwichSiderealTime(jdUT) + longitude)
}
