// Package events locates sunset, moonset, the New Moon conjunction and
// arbitrary solar altitude crossings by bracketing and bisection.
package events

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/lunar"
	"github.com/chrissnell/hilal/pkg/solar"
	"github.com/chrissnell/hilal/pkg/topo"
)

const (
	// SunHorizon is the geometric altitude of the Sun's center at sunrise
	// and sunset: 34' of refraction plus a 16' semidiameter.
	SunHorizon = -0.8333
	// HorizonRefraction is the standard refraction at the horizon.
	HorizonRefraction = 0.5667
)

// Finder runs the event searches with one solver configuration. It holds no
// mutable state and is safe for concurrent use.
type Finder struct {
	cfg SolverConfig
}

// NewFinder returns a Finder, filling unset config fields from
// DefaultSolverConfig.
func NewFinder(cfg SolverConfig) *Finder {
	return &Finder{cfg: cfg.withDefaults()}
}

// Config returns the effective solver configuration.
func (f *Finder) Config() SolverConfig { return f.cfg }

func (f *Finder) tolDays() float64  { return f.cfg.ToleranceSeconds / astro.SecondsPerDay }
func (f *Finder) stepDays() float64 { return f.cfg.ScanStepMinutes / 1440 }

// SunAltitude returns the geometric geocentric altitude of the Sun's center
// in degrees at a UT Julian Day.
func SunAltitude(jdUT float64, loc astro.Location) float64 {
	sun := solar.Apparent(astro.NewInstant(jdUT).TT)
	return astro.EquatorialToHorizontal(sun.Equatorial, loc.Latitude, astro.LocalSiderealTime(jdUT, loc.Longitude)).Altitude
}

// MoonAltitude returns the geometric geocentric altitude of the Moon's
// center in degrees, and its horizontal parallax.
func MoonAltitude(jdUT float64, loc astro.Location) (alt, parallax float64) {
	moon := lunar.Apparent(astro.NewInstant(jdUT).TT)
	h := astro.EquatorialToHorizontal(moon.Equatorial, loc.Latitude, astro.LocalSiderealTime(jdUT, loc.Longitude))
	return h.Altitude, moon.HorizontalParallax
}

// MoonHorizon is the geocentric altitude of the Moon's center when its
// upper limb touches the apparent horizon.
func MoonHorizon(parallax float64) float64 {
	return 0.7275*parallax - HorizonRefraction
}

// FindSunset returns the instant of sunset on the observer's local civil
// date.
func (f *Finder) FindSunset(d astro.Date, loc astro.Location) (astro.JulianInstant, error) {
	return f.findSun("sunset", d, loc, SunHorizon-topo.Dip(loc.Elevation), false)
}

// FindSunrise returns the instant of sunrise on the observer's local civil
// date.
func (f *Finder) FindSunrise(d astro.Date, loc astro.Location) (astro.JulianInstant, error) {
	return f.findSun("sunrise", d, loc, SunHorizon-topo.Dip(loc.Elevation), true)
}

// FindSunAltitude returns when the Sun's center crosses the given geometric
// altitude on the local date, in the morning if rising is true and in the
// evening otherwise.
func (f *Finder) FindSunAltitude(d astro.Date, loc astro.Location, altitude float64, rising bool) (astro.JulianInstant, error) {
	return f.findSun(sunEventName(altitude, rising), d, loc, altitude, rising)
}

func (f *Finder) findSun(event string, d astro.Date, loc astro.Location, altitude float64, rising bool) (astro.JulianInstant, error) {
	if err := d.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	if err := loc.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}

	start := astro.LocalMidnight(d, loc.Timezone)
	g := func(jd float64) float64 { return SunAltitude(jd, loc) - altitude }

	var hint float64
	if est, ok := solar.EstimateRiseSet(start+0.5, loc.Latitude, loc.Longitude, altitude); ok {
		hint = est.Set
		if rising {
			hint = est.Rise
		}
	}
	return f.crossing(event, g, start, start+1, hint, rising)
}

// FindTransit returns the instant the Sun crosses the local meridian on the
// local date.
func (f *Finder) FindTransit(d astro.Date, loc astro.Location) (astro.JulianInstant, error) {
	if err := d.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	if err := loc.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	start := astro.LocalMidnight(d, loc.Timezone)
	est, _ := solar.EstimateRiseSet(start+0.5, loc.Latitude, loc.Longitude, SunHorizon)

	ha := func(jd float64) float64 {
		sun := solar.Apparent(astro.NewInstant(jd).TT)
		return astro.HourAngle(astro.LocalSiderealTime(jd, loc.Longitude), sun.Equatorial.RightAscension)
	}
	jd, err := Bisect(ha, est.Transit-1.0/24, est.Transit+1.0/24, f.tolDays(), f.cfg.MaxIterations)
	if err != nil {
		return astro.JulianInstant{}, wrapSolverErr("transit", err)
	}
	return astro.NewInstant(jd), nil
}

// FindMoonset returns the instant of moonset on the observer's local civil
// date. The Moon skips one set per month, so NoEventError is an ordinary
// outcome here even at low latitudes.
func (f *Finder) FindMoonset(d astro.Date, loc astro.Location) (astro.JulianInstant, error) {
	return f.moonEvent(d, loc, false)
}

// FindMoonrise returns the instant of moonrise on the local date.
func (f *Finder) FindMoonrise(d astro.Date, loc astro.Location) (astro.JulianInstant, error) {
	return f.moonEvent(d, loc, true)
}

func (f *Finder) moonEvent(d astro.Date, loc astro.Location, rising bool) (astro.JulianInstant, error) {
	if err := d.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	if err := loc.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	event := "moonset"
	if rising {
		event = "moonrise"
	}
	start := astro.LocalMidnight(d, loc.Timezone)
	return f.crossing(event, moonHorizonFunc(loc), start, start+1, 0, rising)
}

// moonsetReach bounds the widened moonset search. Near full moon the Moon
// sets about half a day away from sunset, so the nearest set can fall just
// outside the first half-day window while still lying on the same civil date.
const moonsetReach = 0.75

// FindMoonsetNear returns the moonset closest in time to jdUT, searching
// half a day either side and widening once if that window holds no set. It
// is how lag time is measured: a Moon that set before the Sun yields the
// earlier moonset and a negative lag.
func (f *Finder) FindMoonsetNear(jdUT float64, loc astro.Location) (astro.JulianInstant, error) {
	if err := loc.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	g := moonHorizonFunc(loc)
	brackets := Scan(g, jdUT-0.5, jdUT+0.5, f.stepDays(), false)
	if len(brackets) == 0 {
		brackets = Scan(g, jdUT-moonsetReach, jdUT+moonsetReach, f.stepDays(), false)
	}
	if len(brackets) == 0 {
		return astro.JulianInstant{}, noEvent("moonset", g, jdUT)
	}

	best := brackets[0]
	for _, b := range brackets[1:] {
		if math.Abs((b.A+b.B)/2-jdUT) < math.Abs((best.A+best.B)/2-jdUT) {
			best = b
		}
	}
	jd, err := Bisect(g, best.A, best.B, f.tolDays(), f.cfg.MaxIterations)
	if err != nil {
		return astro.JulianInstant{}, wrapSolverErr("moonset", err)
	}
	return astro.NewInstant(jd), nil
}

func moonHorizonFunc(loc astro.Location) func(float64) float64 {
	dip := topo.Dip(loc.Elevation)
	return func(jd float64) float64 {
		alt, hp := MoonAltitude(jd, loc)
		return alt - (MoonHorizon(hp) - dip)
	}
}

// crossing finds the single crossing of g through zero inside [start, end],
// trying a one-hour bracket around hint before scanning the whole window.
func (f *Finder) crossing(event string, g func(float64) float64, start, end, hint float64, rising bool) (astro.JulianInstant, error) {
	if hint > start && hint < end {
		a := math.Max(start, hint-1.0/24)
		b := math.Min(end, hint+1.0/24)
		if brackets := Scan(g, a, b, b-a, rising); len(brackets) == 1 {
			jd, err := Bisect(g, a, b, f.tolDays(), f.cfg.MaxIterations)
			if err == nil {
				return astro.NewInstant(jd), nil
			}
			if !errors.Is(err, errNotBracketed) {
				return astro.JulianInstant{}, wrapSolverErr(event, err)
			}
		}
	}

	brackets := Scan(g, start, end, f.stepDays(), rising)
	if len(brackets) == 0 {
		return astro.JulianInstant{}, noEvent(event, g, (start+end)/2)
	}
	jd, err := Bisect(g, brackets[0].A, brackets[0].B, f.tolDays(), f.cfg.MaxIterations)
	if err != nil {
		return astro.JulianInstant{}, wrapSolverErr(event, err)
	}
	return astro.NewInstant(jd), nil
}

func noEvent(event string, g func(float64) float64, mid float64) error {
	reason := "no crossing of the horizon on this date"
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := -12; i <= 12; i++ {
		v := g(mid + float64(i)/24)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	switch {
	case lo > 0:
		reason = "body stays above the horizon all day"
	case hi < 0:
		reason = "body stays below the horizon all day"
	}
	return &astro.NoEventError{Event: event, Reason: reason}
}

func wrapSolverErr(event string, err error) error {
	var ce *astro.ConvergenceError
	if errors.As(err, &ce) {
		return &astro.ConvergenceError{Event: event, Iterations: ce.Iterations, Residual: ce.Residual}
	}
	return fmt.Errorf("%s: %w", event, err)
}

func sunEventName(altitude float64, rising bool) string {
	if rising {
		return fmt.Sprintf("sun rising through %.2f°", altitude)
	}
	return fmt.Sprintf("sun setting through %.2f°", altitude)
}
