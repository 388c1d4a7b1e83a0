// Package prayer derives the daily Islamic prayer times from solar altitude
// crossings found by the event solver.
package prayer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/events"
	"github.com/chrissnell/hilal/pkg/solar"
	"github.com/soniakeys/unit"
)

// Names of the computed times, used as keys for Ihtiyat and Missing.
const (
	Imsak     = "imsak"
	Fajr      = "fajr"
	Sunrise   = "sunrise"
	Dhuha     = "dhuha"
	Dhuhr     = "dhuhr"
	Asr       = "asr"
	Sunset    = "sunset"
	Maghrib   = "maghrib"
	Isha      = "isha"
	Midnight  = "midnight"
	LastThird = "last_third"
)

// Method is a convention for the twilight prayers. When IshaInterval is
// non-zero Isha is that many minutes after Maghrib and IshaAngle is unused.
type Method struct {
	Name         string  `json:"name"`
	FajrAngle    float64 `json:"fajr_angle"`
	IshaAngle    float64 `json:"isha_angle"`
	IshaInterval float64 `json:"isha_interval,omitempty"`
}

var methods = []Method{
	{Name: "Kemenag", FajrAngle: 20, IshaAngle: 18},
	{Name: "MWL", FajrAngle: 18, IshaAngle: 17},
	{Name: "ISNA", FajrAngle: 15, IshaAngle: 15},
	{Name: "Egypt", FajrAngle: 19.5, IshaAngle: 17.5},
	{Name: "Karachi", FajrAngle: 18, IshaAngle: 18},
	{Name: "UmmAlQura", FajrAngle: 18.5, IshaInterval: 90},
}

// Methods lists the known conventions.
func Methods() []Method {
	return append([]Method(nil), methods...)
}

// LookupMethod finds a convention by name, ignoring case.
func LookupMethod(name string) (Method, error) {
	for _, m := range methods {
		if strings.EqualFold(m.Name, name) {
			return m, nil
		}
	}
	return Method{}, &astro.InvalidInputError{Field: "method", Value: name, Reason: "unknown prayer time method"}
}

// Params controls a calculation.
type Params struct {
	Method Method
	// AsrShadow is the shadow length factor: 1 standard, 2 Hanafi.
	AsrShadow     float64
	ImsakMinutes  float64
	DhuhaAltitude float64
	// Ihtiyat is a safety margin in minutes per time name. It is added to
	// every time except sunrise, where it is subtracted.
	Ihtiyat map[string]float64
}

// DefaultParams is the Kemenag convention with two minutes of ihtiyat.
func DefaultParams() Params {
	m, _ := LookupMethod("Kemenag")
	return Params{
		Method:        m,
		AsrShadow:     1,
		ImsakMinutes:  10,
		DhuhaAltitude: 4.5,
		Ihtiyat: map[string]float64{
			Fajr:    2,
			Dhuha:   2,
			Dhuhr:   2,
			Asr:     2,
			Maghrib: 2,
			Isha:    2,
		},
	}
}

func (p Params) validate() error {
	switch {
	case p.Method.FajrAngle <= 0 || p.Method.FajrAngle >= 90:
		return &astro.InvalidInputError{Field: "fajr_angle", Value: p.Method.FajrAngle, Reason: "must be in (0, 90)"}
	case p.Method.IshaInterval == 0 && (p.Method.IshaAngle <= 0 || p.Method.IshaAngle >= 90):
		return &astro.InvalidInputError{Field: "isha_angle", Value: p.Method.IshaAngle, Reason: "must be in (0, 90)"}
	case p.Method.IshaInterval < 0:
		return &astro.InvalidInputError{Field: "isha_interval", Value: p.Method.IshaInterval, Reason: "must not be negative"}
	case p.AsrShadow < 1:
		return &astro.InvalidInputError{Field: "asr_shadow", Value: p.AsrShadow, Reason: "must be at least 1"}
	case p.ImsakMinutes < 0:
		return &astro.InvalidInputError{Field: "imsak_minutes", Value: p.ImsakMinutes, Reason: "must not be negative"}
	case p.DhuhaAltitude < 0 || p.DhuhaAltitude >= 90:
		return &astro.InvalidInputError{Field: "dhuha_altitude", Value: p.DhuhaAltitude, Reason: "must be in [0, 90)"}
	}
	return nil
}

// Time is one prayer time.
type Time struct {
	astro.JulianInstant
	Local time.Time `json:"local"`
	Clock string    `json:"clock"`
}

func newTime(j astro.JulianInstant, tz float64) *Time {
	local := j.Local(tz)
	return &Time{JulianInstant: j, Local: local, Clock: local.Format("15:04")}
}

// Times holds one day's schedule. A time the Sun never reaches that day is
// nil and Missing says why.
type Times struct {
	Location astro.Location `json:"location"`
	Date     astro.Date     `json:"date"`
	Method   string         `json:"method"`

	Imsak     *Time `json:"imsak"`
	Fajr      *Time `json:"fajr"`
	Sunrise   *Time `json:"sunrise"`
	Dhuha     *Time `json:"dhuha"`
	Dhuhr     *Time `json:"dhuhr"`
	Asr       *Time `json:"asr"`
	Sunset    *Time `json:"sunset"`
	Maghrib   *Time `json:"maghrib"`
	Isha      *Time `json:"isha"`
	Midnight  *Time `json:"midnight"`
	LastThird *Time `json:"last_third"`

	AsrAltitude float64           `json:"asr_altitude"`
	Missing     map[string]string `json:"missing,omitempty"`
}

// Clock returns the local HH:MM of each available time.
func (t *Times) Clock() map[string]string {
	out := make(map[string]string)
	for name, v := range t.byName() {
		if v != nil {
			out[name] = v.Clock
		}
	}
	return out
}

// MissingNames returns the sorted names of the unavailable times.
func (t *Times) MissingNames() []string {
	names := make([]string, 0, len(t.Missing))
	for k := range t.Missing {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (t *Times) byName() map[string]*Time {
	return map[string]*Time{
		Imsak: t.Imsak, Fajr: t.Fajr, Sunrise: t.Sunrise, Dhuha: t.Dhuha,
		Dhuhr: t.Dhuhr, Asr: t.Asr, Sunset: t.Sunset, Maghrib: t.Maghrib,
		Isha: t.Isha, Midnight: t.Midnight, LastThird: t.LastThird,
	}
}

// Calculator computes prayer times.
type Calculator struct {
	finder *events.Finder
}

func NewCalculator(finder *events.Finder) *Calculator {
	if finder == nil {
		finder = events.NewFinder(events.DefaultSolverConfig)
	}
	return &Calculator{finder: finder}
}

// Calculate computes the schedule for the local date d. Times the Sun does
// not reach are recorded in Missing; only invalid input or a solver failure
// is returned as an error.
func (c *Calculator) Calculate(loc astro.Location, d astro.Date, p Params) (*Times, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	t := &Times{Location: loc, Date: d, Method: p.Method.Name, Missing: make(map[string]string)}
	tz := loc.Timezone
	ihtiyat := func(name string, j astro.JulianInstant) *Time {
		return newTime(j.Add(p.Ihtiyat[name]/1440), tz)
	}

	transit, err := c.finder.FindTransit(d, loc)
	if err != nil {
		return nil, err
	}
	t.Dhuhr = ihtiyat(Dhuhr, transit)

	find := func(name string, fn func() (astro.JulianInstant, error)) (astro.JulianInstant, bool, error) {
		j, err := fn()
		if errors.Is(err, astro.ErrNoEvent) {
			t.Missing[name] = err.Error()
			return j, false, nil
		}
		return j, err == nil, err
	}

	fajr, okFajr, err := find(Fajr, func() (astro.JulianInstant, error) {
		return c.finder.FindSunAltitude(d, loc, -p.Method.FajrAngle, true)
	})
	if err != nil {
		return nil, err
	}
	if okFajr {
		t.Fajr = ihtiyat(Fajr, fajr)
		t.Imsak = newTime(t.Fajr.JulianInstant.Add(-p.ImsakMinutes/1440), tz)
	} else {
		t.Missing[Imsak] = "fajr unavailable"
	}

	sunrise, ok, err := find(Sunrise, func() (astro.JulianInstant, error) { return c.finder.FindSunrise(d, loc) })
	if err != nil {
		return nil, err
	}
	if ok {
		t.Sunrise = newTime(sunrise.Add(-p.Ihtiyat[Sunrise]/1440), tz)
	}

	dhuha, ok, err := find(Dhuha, func() (astro.JulianInstant, error) {
		return c.finder.FindSunAltitude(d, loc, p.DhuhaAltitude, true)
	})
	if err != nil {
		return nil, err
	}
	if ok {
		t.Dhuha = ihtiyat(Dhuha, dhuha)
	}

	t.AsrAltitude = AsrAltitude(loc.Latitude, solar.Apparent(transit.TT).Equatorial.Declination, p.AsrShadow)
	asr, ok, err := find(Asr, func() (astro.JulianInstant, error) {
		return c.finder.FindSunAltitude(d, loc, t.AsrAltitude, false)
	})
	if err != nil {
		return nil, err
	}
	if ok {
		t.Asr = ihtiyat(Asr, asr)
	}

	sunset, okSunset, err := find(Sunset, func() (astro.JulianInstant, error) { return c.finder.FindSunset(d, loc) })
	if err != nil {
		return nil, err
	}
	if okSunset {
		t.Sunset = newTime(sunset, tz)
		t.Maghrib = ihtiyat(Maghrib, sunset)
	} else {
		t.Missing[Maghrib] = "sunset unavailable"
	}

	switch {
	case p.Method.IshaInterval > 0 && t.Maghrib != nil:
		t.Isha = newTime(t.Maghrib.JulianInstant.Add(p.Method.IshaInterval/1440), tz)
	case p.Method.IshaInterval > 0:
		t.Missing[Isha] = "maghrib unavailable"
	default:
		isha, ok, err := find(Isha, func() (astro.JulianInstant, error) {
			return c.finder.FindSunAltitude(d, loc, -p.Method.IshaAngle, false)
		})
		if err != nil {
			return nil, err
		}
		if ok {
			t.Isha = ihtiyat(Isha, isha)
		}
	}

	c.night(t, d, loc, p, sunset, okSunset)
	if len(t.Missing) == 0 {
		t.Missing = nil
	}
	return t, nil
}

// night fills midnight and the last third, measured from sunset to the
// next morning's Fajr.
func (c *Calculator) night(t *Times, d astro.Date, loc astro.Location, p Params, sunset astro.JulianInstant, ok bool) {
	if !ok {
		t.Missing[Midnight] = "sunset unavailable"
		t.Missing[LastThird] = "sunset unavailable"
		return
	}
	dawn, err := c.finder.FindSunAltitude(d.AddDays(1), loc, -p.Method.FajrAngle, true)
	if err != nil {
		reason := fmt.Sprintf("next fajr unavailable: %v", err)
		t.Missing[Midnight] = reason
		t.Missing[LastThird] = reason
		return
	}
	night := dawn.UT - sunset.UT
	t.Midnight = newTime(sunset.Add(night/2), loc.Timezone)
	t.LastThird = newTime(sunset.Add(night*2/3), loc.Timezone)
}

// AsrAltitude is the solar altitude at which an object's shadow equals
// its noon shadow plus shadow times its height.
func AsrAltitude(latitude, declination, shadow float64) float64 {
	zenith := unit.AngleFromDeg(math.Abs(latitude - declination))
	return unit.Angle(math.Atan(1 / (shadow + zenith.Tan()))).Deg()
}
