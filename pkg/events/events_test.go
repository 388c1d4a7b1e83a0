package events

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
)

var (
	sukabumi = astro.Location{Name: "Sukabumi", Latitude: -7.0739, Longitude: 106.5314, Elevation: 10, Timezone: 7}
	london   = astro.Location{Name: "London", Latitude: 51.5, Longitude: -0.1, Timezone: 0}
	arctic   = astro.Location{Name: "Svalbard", Latitude: 75, Longitude: 15, Timezone: 1}
)

func TestBisect(t *testing.T) {
	f := func(x float64) float64 { return x*x - 2 }

	got, err := Bisect(f, 1, 2, 1e-10, 100)
	if err != nil {
		t.Fatalf("Bisect() error = %v", err)
	}
	if math.Abs(got-math.Sqrt2) > 1e-9 {
		t.Errorf("Bisect() = %.10f, want %.10f", got, math.Sqrt2)
	}

	_, err = Bisect(f, 1, 2, 1e-12, 3)
	if !errors.Is(err, astro.ErrConvergence) {
		t.Errorf("expected ErrConvergence with a tiny iteration cap, got %v", err)
	}

	if _, err := Bisect(f, 2, 3, 1e-9, 100); err == nil {
		t.Error("expected an error when the root is not bracketed")
	}
}

func TestScan(t *testing.T) {
	rising := Scan(math.Sin, 0.05, 10, 0.1, true)
	falling := Scan(math.Sin, 0.05, 10, 0.1, false)
	if len(rising) != 1 || len(falling) != 2 {
		t.Fatalf("Scan() found %d rising and %d falling brackets, want 1 and 2", len(rising), len(falling))
	}
	if rising[0].A > 2*math.Pi || rising[0].B < 2*math.Pi {
		t.Errorf("rising bracket %+v does not contain 2π", rising[0])
	}
}

func TestFindConjunction(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)

	tests := []struct {
		name      string
		published time.Time
	}{
		{"January 2024", time.Date(2024, 1, 11, 11, 57, 0, 0, time.UTC)},
		{"February 2024", time.Date(2024, 2, 9, 22, 59, 0, 0, time.UTC)},
		{"total eclipse April 2024", time.Date(2024, 4, 8, 18, 21, 0, 0, time.UTC)},
		{"partial eclipse March 2025", time.Date(2025, 3, 29, 10, 58, 0, 0, time.UTC)},
		{"annular eclipse February 2026", time.Date(2026, 2, 17, 12, 1, 0, 0, time.UTC)},
		{"total eclipse August 2017", time.Date(2017, 8, 21, 18, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, offsetDays := range []float64{-6, 0, 9} {
				approx := astro.InstantFromTime(tt.published).Add(offsetDays)
				got, err := f.FindConjunction(approx)
				if err != nil {
					t.Fatalf("FindConjunction() error = %v", err)
				}
				if d := got.Time().Sub(tt.published); d > 2*time.Minute || d < -2*time.Minute {
					t.Errorf("offset %v days: conjunction %v, published %v (off by %v)",
						offsetDays, got.Time().Format(time.RFC3339), tt.published.Format(time.RFC3339), d)
				}
			}
		})
	}
}

func TestFindConjunctionMeeusExample(t *testing.T) {
	// New Moon of 1977 February 18, 3h37m42s TD.
	f := NewFinder(DefaultSolverConfig)
	want := 2443192.65118
	got, err := f.FindConjunction(astro.InstantFromTT(want - 3))
	if err != nil {
		t.Fatalf("FindConjunction() error = %v", err)
	}
	if d := (got.TT - want) * 1440; math.Abs(d) > 2 {
		t.Errorf("JDE %.5f differs by %.2f minutes", got.TT, d)
	}
}

func TestPreviousAndNextConjunction(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)
	at := astro.InstantFromTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	prev, err := f.PreviousConjunction(at)
	if err != nil {
		t.Fatal(err)
	}
	next, err := f.NextConjunction(at)
	if err != nil {
		t.Fatal(err)
	}
	if prev.UT > at.UT || next.UT <= at.UT {
		t.Fatalf("prev %.4f and next %.4f do not straddle %.4f", prev.UT, next.UT, at.UT)
	}
	if gap := next.UT - prev.UT; gap < 29.2 || gap > 29.9 {
		t.Errorf("lunation length %.3f days", gap)
	}
	if prev.Time().Day() != 11 || next.Time().Day() != 9 {
		t.Errorf("prev=%v next=%v", prev.Time(), next.Time())
	}
}

func TestFindTopocentricConjunction(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)
	geo, err := f.FindConjunction(astro.InstantFromTime(time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	topoc, err := f.FindTopocentricConjunction(geo, sukabumi)
	if err != nil {
		t.Fatal(err)
	}
	if d := math.Abs(astro.HoursBetween(geo, topoc)); d == 0 || d > 3 {
		t.Errorf("topocentric conjunction %.2f h from geocentric, want within (0, 3]", d)
	}
}

func TestFindSunset(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)

	tests := []struct {
		name       string
		date       astro.Date
		loc        astro.Location
		localHours float64
	}{
		{"Sukabumi", astro.Date{Year: 2026, Month: 2, Day: 18}, sukabumi, 18.285},
		{"London midsummer", astro.Date{Year: 2024, Month: 6, Day: 21}, london, 20 + 21.0/60},
		{"London midwinter", astro.Date{Year: 2024, Month: 12, Day: 21}, london, 15 + 54.0/60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.FindSunset(tt.date, tt.loc)
			if err != nil {
				t.Fatalf("FindSunset() error = %v", err)
			}
			h := got.LocalHours(tt.date, tt.loc.Timezone)
			if math.Abs(h-tt.localHours)*60 > 3 {
				t.Errorf("sunset at %s local, want %s", astro.FormatHours(h), astro.FormatHours(tt.localHours))
			}
			if alt := SunAltitude(got.UT, tt.loc); math.Abs(alt-(SunHorizon-0.0293*math.Sqrt(tt.loc.Elevation))) > 0.01 {
				t.Errorf("sun altitude at sunset = %.4f", alt)
			}
		})
	}
}

func TestFindSunriseBeforeTransitBeforeSunset(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)
	d := astro.Date{Year: 2024, Month: 2, Day: 11}
	loc := astro.Location{Latitude: 51.48, Longitude: 0}

	rise, err := f.FindSunrise(d, loc)
	if err != nil {
		t.Fatal(err)
	}
	noon, err := f.FindTransit(d, loc)
	if err != nil {
		t.Fatal(err)
	}
	set, err := f.FindSunset(d, loc)
	if err != nil {
		t.Fatal(err)
	}
	if !(rise.UT < noon.UT && noon.UT < set.UT) {
		t.Fatalf("events out of order: %v %v %v", rise.Time(), noon.Time(), set.Time())
	}
	// The equation of time is about -14 minutes in mid February.
	if h := noon.LocalHours(d, 0); math.Abs(h-(12+14.2/60))*60 > 1 {
		t.Errorf("transit at %s, want about 12:14", astro.FormatHours(h))
	}
}

func TestCircumpolar(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)

	tests := []struct {
		name   string
		date   astro.Date
		reason string
	}{
		{"polar night", astro.Date{Year: 2024, Month: 12, Day: 21}, "below"},
		{"midnight sun", astro.Date{Year: 2024, Month: 6, Day: 21}, "above"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.FindSunset(tt.date, arctic)
			if !errors.Is(err, astro.ErrNoEvent) {
				t.Fatalf("expected ErrNoEvent, got %v", err)
			}
			var ne *astro.NoEventError
			if !errors.As(err, &ne) || !strings.Contains(ne.Reason, tt.reason) {
				t.Errorf("unexpected reason: %v", err)
			}
		})
	}
}

func TestFindSunAltitudeUnreachable(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)
	_, err := f.FindSunAltitude(astro.Date{Year: 2024, Month: 6, Day: 21}, london, -18, true)
	if !errors.Is(err, astro.ErrNoEvent) {
		t.Errorf("expected no astronomical dawn in a London June, got %v", err)
	}
}

func TestMoonsetAndLag(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)

	tests := []struct {
		name           string
		date           astro.Date
		minLag, maxLag float64 // minutes
	}{
		{"day of conjunction", astro.Date{Year: 2026, Month: 2, Day: 17}, -15, 5},
		{"day after conjunction", astro.Date{Year: 2026, Month: 2, Day: 18}, 25, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sunset, err := f.FindSunset(tt.date, sukabumi)
			if err != nil {
				t.Fatal(err)
			}
			moonset, err := f.FindMoonsetNear(sunset.UT, sukabumi)
			if err != nil {
				t.Fatal(err)
			}
			lag := astro.HoursBetween(sunset, moonset) * 60
			if lag < tt.minLag || lag > tt.maxLag {
				t.Errorf("lag = %.1f min, want within [%v, %v]", lag, tt.minLag, tt.maxLag)
			}
		})
	}

	ms, err := f.FindMoonset(astro.Date{Year: 2026, Month: 2, Day: 18}, sukabumi)
	if err != nil {
		t.Fatal(err)
	}
	if h := ms.LocalHours(astro.Date{Year: 2026, Month: 2, Day: 18}, 7); h < 18.5 || h > 19.5 {
		t.Errorf("moonset at %s local", astro.FormatHours(h))
	}
}

func TestMoonsetNearFullMoon(t *testing.T) {
	f := NewFinder(DefaultSolverConfig)
	d := astro.Date{Year: 2026, Month: 2, Day: 2}

	sunset, err := f.FindSunset(d, sukabumi)
	if err != nil {
		t.Fatal(err)
	}
	near, err := f.FindMoonsetNear(sunset.UT, sukabumi)
	if err != nil {
		t.Fatalf("FindMoonsetNear() error = %v", err)
	}
	onDate, err := f.FindMoonset(d, sukabumi)
	if err != nil {
		t.Fatalf("FindMoonset() error = %v", err)
	}
	if diff := math.Abs(astro.HoursBetween(near, onDate)) * 60; diff > 2 {
		t.Errorf("moonset near sunset %s differs from moonset on date %s by %.1f min",
			near.Time(), onDate.Time(), diff)
	}
	if lag := astro.HoursBetween(sunset, near); lag > -11 || lag < -13.5 {
		t.Errorf("lag = %.2f h, want about half a day before sunset", lag)
	}
}

func TestInvalidInput(t *testing.T) {
	f := NewFinder(SolverConfig{})
	if f.Config() != DefaultSolverConfig {
		t.Errorf("zero config not defaulted: %+v", f.Config())
	}
	_, err := f.FindSunset(astro.Date{Year: 2024, Month: 2, Day: 31}, london)
	if !errors.Is(err, astro.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	_, err = f.FindMoonset(astro.Date{Year: 2024, Month: 2, Day: 1}, astro.Location{Latitude: 91})
	if !errors.Is(err, astro.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
