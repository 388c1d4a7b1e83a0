// Package ephemeris assembles the Sun and Moon state at sunset that every
// visibility criterion is evaluated against.
package ephemeris

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/calendar"
	"github.com/chrissnell/hilal/pkg/events"
	"github.com/chrissnell/hilal/pkg/lunar"
	"github.com/chrissnell/hilal/pkg/solar"
	"github.com/chrissnell/hilal/pkg/topo"
	"github.com/soniakeys/unit"
)

// unbornWindowHours is how far after sunset a conjunction still counts as
// the one that starts the coming month.
const unbornWindowHours = 24

// PartialResultWarning accompanies a Snapshot in which some events could
// not be computed. The snapshot is still usable.
type PartialResultWarning struct {
	Failures map[string]error
}

func (w *PartialResultWarning) Error() string {
	keys := make([]string, 0, len(w.Failures))
	for k := range w.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, w.Failures[k])
	}
	return "partial ephemeris: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (w *PartialResultWarning) Unwrap() []error {
	out := make([]error, 0, len(w.Failures))
	for _, err := range w.Failures {
		out = append(out, err)
	}
	return out
}

// IsPartial reports whether err only flags a partial snapshot.
func IsPartial(err error) bool {
	var w *PartialResultWarning
	return errors.As(err, &w)
}

// Aggregator computes snapshots. It is stateless and safe for concurrent
// use.
type Aggregator struct {
	finder *events.Finder
	atm    topo.Atmosphere
}

// New returns an Aggregator. A nil finder uses the default solver settings.
func New(finder *events.Finder, atm topo.Atmosphere) *Aggregator {
	if finder == nil {
		finder = events.NewFinder(events.DefaultSolverConfig)
	}
	return &Aggregator{finder: finder, atm: atm}
}

// Finder returns the event finder the aggregator uses.
func (a *Aggregator) Finder() *events.Finder { return a.finder }

// Options tune a single computation.
type Options struct {
	// Conjunctions, sorted by time, are used instead of a fresh search when
	// two consecutive entries bracket the sunset. See Lunations.
	Conjunctions []astro.JulianInstant
	// SkipTopocentricConjunction leaves TopocentricConjunction nil.
	SkipTopocentricConjunction bool
}

// Compute builds the snapshot at sunset on the local date d. Without a
// sunset nothing is defined, so that failure is returned as an error with
// a nil snapshot. Other failures yield a partial snapshot together with a
// *PartialResultWarning.
func (a *Aggregator) Compute(loc astro.Location, d astro.Date) (*Snapshot, error) {
	return a.ComputeWith(loc, d, Options{})
}

// Lunations returns the conjunctions before, nearest to and after 0h UT of
// d. Every sunset on local date d anywhere on Earth falls between the
// first and the last.
func (a *Aggregator) Lunations(d astro.Date) ([]astro.JulianInstant, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	mid, err := a.finder.FindConjunction(astro.NewInstant(d.JD()))
	if err != nil {
		return nil, err
	}
	prev, err := a.finder.PreviousConjunction(mid.Add(-1))
	if err != nil {
		return nil, err
	}
	next, err := a.finder.NextConjunction(mid.Add(1))
	if err != nil {
		return nil, err
	}
	return []astro.JulianInstant{prev, mid, next}, nil
}

// ComputeWith is Compute with options.
func (a *Aggregator) ComputeWith(loc astro.Location, d astro.Date, opts Options) (*Snapshot, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	sunset, err := a.finder.FindSunset(d, loc)
	if err != nil {
		return nil, fmt.Errorf("sunset on %s: %w", d, err)
	}

	s := &Snapshot{
		Location:    loc,
		Date:        d,
		Sunset:      *newEvent(sunset, loc.Timezone),
		Observation: a.Observe(loc, sunset),
		DayName:     calendar.DayName(d),
	}
	failures := make(map[string]error)

	if ms, err := a.finder.FindMoonsetNear(sunset.UT, loc); err != nil {
		failures["moonset"] = err
	} else {
		s.Moonset = newEvent(ms, loc.Timezone)
		hours := astro.HoursBetween(sunset, ms)
		lag := hours * 60
		s.LagMinutes = &lag
		s.LagHours = &hours
		if lag > 0 {
			s.BestTime = newEvent(sunset.Add(lag*4/9/1440), loc.Timezone)
		}
	}

	a.conjunction(s, opts, failures)

	if h, err := calendar.GregorianToHijri(d.Year, d.Month, d.Day); err != nil {
		failures["hijri_date"] = err
	} else {
		s.HijriDate = h
	}

	if len(failures) > 0 {
		s.Failures = make(map[string]string, len(failures))
		for k, err := range failures {
			s.Failures[k] = err.Error()
		}
		return s, &PartialResultWarning{Failures: failures}
	}
	return s, nil
}

func (a *Aggregator) conjunction(s *Snapshot, opts Options, failures map[string]error) {
	sunset := s.Sunset.JulianInstant

	prev, next, ok := bracket(opts.Conjunctions, sunset)
	if !ok {
		var err error
		if prev, err = a.finder.PreviousConjunction(sunset); err != nil {
			failures["conjunction"] = err
			return
		}
		if next, err = a.finder.NextConjunction(sunset); err != nil {
			failures["conjunction"] = err
			return
		}
	}

	conj := prev
	if hours := astro.HoursBetween(sunset, next); hours <= unbornWindowHours {
		conj = next
		s.HoursToConjunction = &hours
	} else {
		age := astro.HoursBetween(prev, sunset)
		s.MoonAgeHours = &age
		s.MoonBorn = true
	}
	s.ConjunctionBeforeSunset = conj.UT <= sunset.UT
	s.Conjunction = newEvent(conj, s.Location.Timezone)

	if opts.SkipTopocentricConjunction {
		return
	}
	tc, err := a.finder.FindTopocentricConjunction(conj, s.Location)
	if err != nil {
		failures["topocentric_conjunction"] = err
		return
	}
	s.TopocentricConjunction = newEvent(tc, s.Location.Timezone)
}

func bracket(list []astro.JulianInstant, t astro.JulianInstant) (prev, next astro.JulianInstant, ok bool) {
	for i := 0; i+1 < len(list); i++ {
		if list[i].UT <= t.UT && t.UT < list[i+1].UT {
			return list[i], list[i+1], true
		}
	}
	return prev, next, false
}

// Observe computes both bodies in both frames at an arbitrary instant.
func (a *Aggregator) Observe(loc astro.Location, inst astro.JulianInstant) Observation {
	sun := solar.Apparent(inst.TT)
	moon := lunar.Apparent(inst.TT)
	lst := astro.LocalSiderealTime(inst.UT, loc.Longitude)

	obs := Observation{
		Instant:         inst,
		DeltaT:          (inst.TT - inst.UT) * astro.SecondsPerDay,
		DeltaTValidated: astro.DeltaTValidated(inst.UT),
		Nutation:        sun.Nutation,
		Aberration:      sun.Aberration,
		LocalSidereal:   lst,
	}

	obs.Sun = a.body(loc, lst, sun.Nutation, bodyInput{
		ecl:          sun.Ecliptic(),
		appEcl:       sun.ApparentEcliptic(),
		meanEq:       sun.MeanEquatorial,
		appEq:        sun.Equatorial,
		distanceKm:   sun.DistanceKm,
		semidiameter: solar.Semidiameter(sun.Distance),
	})
	obs.Sun.HorizontalParallax = topo.HorizontalParallaxAU(sun.Distance)

	obs.Moon = a.body(loc, lst, moon.Nutation, bodyInput{
		ecl:          moon.Ecliptic(),
		appEcl:       moon.ApparentEcliptic(),
		meanEq:       moon.MeanEquatorial,
		appEq:        moon.Equatorial,
		distanceKm:   moon.DistanceKm,
		semidiameter: lunar.Semidiameter(moon.DistanceKm),
	})
	obs.Moon.HorizontalParallax = moon.HorizontalParallax

	obs.Geocentric = crescent(obs.Sun.Geocentric, obs.Moon.Geocentric)
	obs.Topocentric = crescent(obs.Sun.Topocentric, obs.Moon.Topocentric)
	return obs
}

type bodyInput struct {
	ecl, appEcl   astro.Ecliptic
	meanEq, appEq astro.Equatorial
	distanceKm    float64
	semidiameter  float64
}

func (a *Aggregator) body(loc astro.Location, lst float64, nut astro.Nutation, in bodyInput) Body {
	geo := Frame{
		Ecliptic:           in.ecl,
		ApparentEcliptic:   in.appEcl,
		Equatorial:         in.meanEq,
		ApparentEquatorial: in.appEq,
		Horizontal:         astro.EquatorialToHorizontal(in.appEq, loc.Latitude, lst),
		DistanceKm:         in.distanceKm,
		Semidiameter:       in.semidiameter,
	}
	a.refract(&geo)

	app := topo.ApplyParallax(in.appEq, in.distanceKm, loc, lst)
	mean := topo.ApplyParallax(in.meanEq, in.distanceKm, loc, lst)
	tp := Frame{
		Ecliptic:           astro.EquatorialToEcliptic(mean.Equatorial, nut.MeanObliquity),
		ApparentEcliptic:   astro.EquatorialToEcliptic(app.Equatorial, nut.TrueObliquity),
		Equatorial:         mean.Equatorial,
		ApparentEquatorial: app.Equatorial,
		Horizontal:         astro.EquatorialToHorizontal(app.Equatorial, loc.Latitude, lst),
		DistanceKm:         app.DistanceKm,
		Semidiameter:       topo.TopocentricSemidiameter(in.semidiameter, in.distanceKm, app.DistanceKm),
	}
	a.refract(&tp)

	return Body{Geocentric: geo, Topocentric: tp}
}

func (a *Aggregator) refract(f *Frame) {
	r, ok := a.atm.Refraction(topo.Airy, f.Horizontal.Altitude)
	f.Refraction = r
	f.RefractionValid = ok
	f.AiryAltitude = f.Horizontal.Altitude + r
}

func crescent(sun, moon Frame) Crescent {
	elongation := astro.EquatorialSeparation(sun.ApparentEquatorial, moon.ApparentEquatorial)
	i := lunar.PhaseAngle(elongation, sun.DistanceKm, moon.DistanceKm)
	sd := moon.Semidiameter

	return Crescent{
		Elongation:        elongation,
		PhaseAngle:        i,
		Illumination:      lunar.IlluminatedFraction(i) * 100,
		CrescentWidth:     sd * 60 * (1 - unit.AngleFromDeg(elongation).Cos()),
		RelativeAltitude:  moon.Horizontal.Altitude - sun.Horizontal.Altitude,
		RelativeAzimuth:   astro.NormalizeDegrees180(sun.Horizontal.Azimuth - moon.Horizontal.Azimuth),
		MoonAltitude:      moon.Horizontal.Altitude,
		MoonAiryAltitude:  moon.AiryAltitude,
		UpperLimbAltitude: moon.Horizontal.Altitude + sd,
		LowerLimbAltitude: moon.Horizontal.Altitude - sd,
		BrightLimbAngle:   lunar.BrightLimbAngle(sun.ApparentEquatorial, moon.ApparentEquatorial),
	}
}
