package topo

import (
	"fmt"

	"github.com/soniakeys/meeus/v3/refraction"
	"github.com/soniakeys/unit"
)

// MinRefractionAltitude is the lowest geometric altitude, in degrees, for
// which the bending model is applied. Below it the result is reported as
// undefined.
const MinRefractionAltitude = -1.0

// RefractionModel selects how apparent altitudes are derived.
type RefractionModel int

const (
	// Airless leaves altitudes uncorrected.
	Airless RefractionModel = iota
	// Airy adds standard atmospheric bending.
	Airy
)

func (m RefractionModel) String() string {
	switch m {
	case Airless:
		return "airless"
	case Airy:
		return "airy"
	}
	return fmt.Sprintf("RefractionModel(%d)", int(m))
}

// Atmosphere scales the bending to local conditions.
type Atmosphere struct {
	PressureMbar float64 `json:"pressure_mbar" yaml:"pressure_mbar"`
	TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
}

// StandardAtmosphere is the reference the refraction formulae are
// calibrated for.
var StandardAtmosphere = Atmosphere{PressureMbar: 1010, TemperatureC: 10}

func (a Atmosphere) scale() float64 {
	if a.PressureMbar <= 0 {
		a = StandardAtmosphere
	}
	return a.PressureMbar / 1010 * 283 / (273 + a.TemperatureC)
}

// Refraction returns the bending in degrees to add to a geometric altitude
// under the given model. ok is false when the altitude is too far below the
// horizon for the bending to mean anything; the returned correction is then
// zero and the caller should flag the value.
func (a Atmosphere) Refraction(model RefractionModel, altitude float64) (r float64, ok bool) {
	if model == Airless {
		return 0, true
	}
	if altitude < MinRefractionAltitude {
		return 0, false
	}
	r = refraction.Saemundsson(unit.AngleFromDeg(altitude)).Deg()
	return r * a.scale(), true
}

// ApparentAltitude applies Refraction to a geometric altitude.
func (a Atmosphere) ApparentAltitude(model RefractionModel, altitude float64) (float64, bool) {
	r, ok := a.Refraction(model, altitude)
	return altitude + r, ok
}

// TrueAltitude removes bending from an observed altitude using Bennett's
// formula. Observed altitudes below MinRefractionAltitude are returned
// unchanged with ok false.
func (a Atmosphere) TrueAltitude(observed float64) (float64, bool) {
	if observed < MinRefractionAltitude {
		return observed, false
	}
	r := refraction.Bennett(unit.AngleFromDeg(observed)).Deg()
	return observed - r*a.scale(), true
}
