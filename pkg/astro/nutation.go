package astro

import (
	"github.com/soniakeys/meeus/v3/nutation"
)

// Nutation holds the IAU 1980 nutation terms and the obliquity of the
// ecliptic for one instant, all in degrees.
type Nutation struct {
	Longitude     float64 `json:"nutation_longitude"` // Δψ
	Obliquity     float64 `json:"nutation_obliquity"` // Δε
	MeanObliquity float64 `json:"mean_obliquity"`     // ε0
	TrueObliquity float64 `json:"true_obliquity"`     // ε0 + Δε
}

// NutationAndObliquity evaluates the full 63-term IAU 1980 series at the
// given Julian Ephemeris Day.
func NutationAndObliquity(jde float64) Nutation {
	dpsi, deps := nutation.Nutation(jde)
	eps0 := nutation.MeanObliquity(jde)
	return Nutation{
		Longitude:     dpsi.Deg(),
		Obliquity:     deps.Deg(),
		MeanObliquity: eps0.Deg(),
		TrueObliquity: (eps0 + deps).Deg(),
	}
}
