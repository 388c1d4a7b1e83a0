package events

import (
	"fmt"
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/lunar"
	"github.com/chrissnell/hilal/pkg/solar"
	"github.com/chrissnell/hilal/pkg/topo"
	"github.com/soniakeys/meeus/v3/moonphase"
)

// longitudeGap is the apparent geocentric longitude of the Moon minus that
// of the Sun, wrapped to (-180, 180]. It rises through zero at New Moon.
func longitudeGap(jde float64) float64 {
	sun := solar.Apparent(jde)
	moon := lunar.Apparent(jde)
	return astro.NormalizeDegrees180(moon.ApparentLongitude - sun.ApparentLongitude)
}

// FindConjunction returns the geocentric New Moon nearest to approx. The
// mean-phase series seeds the search; the result is refined against the
// solar and lunar theories used everywhere else so that moon age and
// conjunction-before-sunset checks are self-consistent. A result more than
// one synodic month from approx is rejected.
func (f *Finder) FindConjunction(approx astro.JulianInstant) (astro.JulianInstant, error) {
	seed := nearestMeanNewMoon(approx.TT)

	// The longitude gap moves about 12° per day, so one day either side of
	// the seed always brackets the true instant; fall back to a wider scan.
	a, b := seed-1, seed+1
	if math.Signbit(longitudeGap(a)) == math.Signbit(longitudeGap(b)) {
		brackets := Scan(longitudeGap, seed-3, seed+3, 0.25, true)
		if len(brackets) == 0 {
			return astro.JulianInstant{}, &astro.NoEventError{Event: "conjunction", Reason: "no New Moon within three days of the mean phase"}
		}
		a, b = brackets[0].A, brackets[0].B
	}

	jde, err := Bisect(longitudeGap, a, b, f.tolDays(), f.cfg.MaxIterations)
	if err != nil {
		return astro.JulianInstant{}, wrapSolverErr("conjunction", err)
	}
	if math.Abs(jde-approx.TT) > lunar.SynodicMonth {
		return astro.JulianInstant{}, fmt.Errorf("conjunction at JDE %.5f is more than a synodic month from %.5f: %w",
			jde, approx.TT, astro.ErrConvergence)
	}
	return astro.InstantFromTT(jde), nil
}

// PreviousConjunction returns the last New Moon at or before jd.
func (f *Finder) PreviousConjunction(jd astro.JulianInstant) (astro.JulianInstant, error) {
	c, err := f.FindConjunction(jd)
	if err != nil {
		return c, err
	}
	if c.UT > jd.UT {
		return f.FindConjunction(jd.Add(-lunar.SynodicMonth))
	}
	return c, nil
}

// NextConjunction returns the first New Moon strictly after jd.
func (f *Finder) NextConjunction(jd astro.JulianInstant) (astro.JulianInstant, error) {
	c, err := f.FindConjunction(jd)
	if err != nil {
		return c, err
	}
	if c.UT <= jd.UT {
		return f.FindConjunction(jd.Add(lunar.SynodicMonth))
	}
	return c, nil
}

// FindTopocentricConjunction returns when the Moon, as seen from loc,
// reaches the Sun's ecliptic longitude. Parallax displaces it from the
// geocentric instant by up to a couple of hours.
func (f *Finder) FindTopocentricConjunction(geocentric astro.JulianInstant, loc astro.Location) (astro.JulianInstant, error) {
	if err := loc.Validate(); err != nil {
		return astro.JulianInstant{}, err
	}
	gap := func(jdUT float64) float64 {
		inst := astro.NewInstant(jdUT)
		sun := solar.Apparent(inst.TT)
		moon := lunar.Apparent(inst.TT)
		lst := astro.LocalSiderealTime(jdUT, loc.Longitude)
		tm := topo.ApplyParallax(moon.Equatorial, moon.DistanceKm, loc, lst)
		ts := topo.ApplyParallax(sun.Equatorial, sun.DistanceKm, loc, lst)
		obl := moon.Nutation.TrueObliquity
		λm := astro.EquatorialToEcliptic(tm.Equatorial, obl).Longitude
		λs := astro.EquatorialToEcliptic(ts.Equatorial, obl).Longitude
		return astro.NormalizeDegrees180(λm - λs)
	}

	brackets := Scan(gap, geocentric.UT-0.5, geocentric.UT+0.5, 1.0/24, true)
	if len(brackets) == 0 {
		return astro.JulianInstant{}, &astro.NoEventError{Event: "topocentric conjunction", Reason: "no crossing within half a day of the geocentric conjunction"}
	}
	jd, err := Bisect(gap, brackets[0].A, brackets[0].B, f.tolDays(), f.cfg.MaxIterations)
	if err != nil {
		return astro.JulianInstant{}, wrapSolverErr("topocentric conjunction", err)
	}
	return astro.NewInstant(jd), nil
}

// nearestMeanNewMoon returns the JDE of the mean-phase New Moon closest to
// jde.
func nearestMeanNewMoon(jde float64) float64 {
	year := astro.DecimalYear(jde)
	nm := moonphase.New(year)
	for i := 0; i < 4 && math.Abs(nm-jde) > lunar.SynodicMonth/2; i++ {
		year += (jde - nm) / 365.25
		nm = moonphase.New(year)
	}
	return nm
}
