package astro

import (
	"github.com/soniakeys/meeus/v3/base"
)

// ΔT validated range, in decimal years. Outside it DeltaT still returns a
// smooth extrapolation but callers should treat the value as lower
// confidence.
const (
	DeltaTValidFrom = 1900.0
	DeltaTValidTo   = 2100.0
)

// DecimalYear converts a Julian Day to a decimal Gregorian year.
func DecimalYear(jd float64) float64 {
	return 2000 + (jd-2451544.5)/365.2425
}

// DeltaT returns TT − UT in seconds for the given Julian Day, using the
// Espenak & Meeus piecewise polynomials. Before -500 and after 2150 the
// Morrison & Stephenson long-term parabola is used.
func DeltaT(jd float64) float64 {
	y := DecimalYear(jd)
	switch {
	case y < -500:
		return longTermDeltaT(y)
	case y < 500:
		return base.Horner(y/100,
			10583.6, -1014.41, 33.78311, -5.952053, -0.1798452, 0.022174192, 0.0090316521)
	case y < 1600:
		return base.Horner((y-1000)/100,
			1574.2, -556.01, 71.23472, 0.319781, -0.8503463, -0.005050998, 0.0083572073)
	case y < 1700:
		t := y - 1600
		return base.Horner(t, 120, -0.9808, -0.01532, 1.0/7129)
	case y < 1800:
		t := y - 1700
		return base.Horner(t, 8.83, 0.1603, -0.0059285, 0.00013336, -1.0/1174000)
	case y < 1860:
		t := y - 1800
		return base.Horner(t,
			13.72, -0.332447, 0.0068612, 0.0041116, -0.00037436, 0.0000121272, -0.0000001699, 0.000000000875)
	case y < 1900:
		t := y - 1860
		return base.Horner(t, 7.62, 0.5737, -0.251754, 0.01680668, -0.0004473624, 1.0/233174)
	case y < 1920:
		t := y - 1900
		return base.Horner(t, -2.79, 1.494119, -0.0598939, 0.0061966, -0.000197)
	case y < 1941:
		t := y - 1920
		return base.Horner(t, 21.20, 0.84493, -0.076100, 0.0020936)
	case y < 1961:
		t := y - 1950
		return base.Horner(t, 29.07, 0.407, -1.0/233, 1.0/2547)
	case y < 1986:
		t := y - 1975
		return base.Horner(t, 45.45, 1.067, -1.0/260, -1.0/718)
	case y < 2005:
		t := y - 2000
		return base.Horner(t, 63.86, 0.3345, -0.060374, 0.0017275, 0.000651814, 0.00002373599)
	case y < 2050:
		t := y - 2000
		return base.Horner(t, 62.92, 0.32217, 0.005589)
	case y < 2150:
		return longTermDeltaT(y) - 0.5628*(2150-y)
	}
	return longTermDeltaT(y)
}

// DeltaTValidated reports whether jd falls in the range the ΔT model was
// fitted against observations.
func DeltaTValidated(jd float64) bool {
	y := DecimalYear(jd)
	return y >= DeltaTValidFrom && y <= DeltaTValidTo
}

func longTermDeltaT(y float64) float64 {
	u := (y - 1820) / 100
	return -20 + 32*u*u
}
