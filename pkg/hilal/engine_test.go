package hilal

import (
	"errors"
	"testing"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/config"
	"github.com/chrissnell/hilal/pkg/criteria"
)

var arctic = astro.Location{Name: "Svalbard", Latitude: 75, Longitude: 15, Timezone: 1}

func newEngine(t *testing.T, cfg *config.ConfigData) *Engine {
	t.Helper()
	e, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNewDefaults(t *testing.T) {
	e := newEngine(t, nil)
	if got := len(e.Criteria()); got != 9 {
		t.Errorf("Criteria() = %d entries, want 9", got)
	}
	if loc := e.DefaultLocation(); loc.Name != "Jakarta" || loc.Timezone != 7 {
		t.Errorf("DefaultLocation() = %+v", loc)
	}
	if e.prayerParams.Method.Name != "Kemenag" || e.prayerParams.AsrShadow != 1 {
		t.Errorf("prayer params = %+v", e.prayerParams)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ConfigData)
		target error
	}{
		{"no workers", func(c *config.ConfigData) { c.Zones.Workers = 0 }, nil},
		{"unknown criterion override", func(c *config.ConfigData) {
			c.Criteria = []config.CriterionData{{ID: "Kriteria99"}}
		}, criteria.ErrUnknownCriterion},
		{"unknown prayer method", func(c *config.ConfigData) { c.Prayer.Method = "Nowhere" }, astro.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			_, err := New(cfg, nil)
			if err == nil {
				t.Fatal("New() succeeded, want error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("New() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestCalculateHilalVisibility(t *testing.T) {
	e := newEngine(t, nil)

	before, err := e.CalculateHilalVisibility(sukabumi, 2026, 2, 17)
	if err != nil {
		t.Fatalf("CalculateHilalVisibility() error = %v", err)
	}
	after, err := e.CalculateHilalVisibility(sukabumi, 2026, 2, 18)
	if err != nil {
		t.Fatalf("CalculateHilalVisibility() error = %v", err)
	}

	if len(after.CriteriaResults) != 9 {
		t.Errorf("got %d criteria results, want 9", len(after.CriteriaResults))
	}
	if after.Ephemeris == nil {
		t.Fatal("missing ephemeris")
	}
	if after.Partial {
		t.Fatalf("unexpected partial result: %v", after.Ephemeris.Failures)
	}
	if after.HijriDate.Year != 1447 {
		t.Errorf("hijri year = %d, want 1447", after.HijriDate.Year)
	}

	for _, id := range []string{"MABIMS", "WujudulHilal"} {
		if r := before.CriteriaResults[id]; r.IsVisible || !r.Determined {
			t.Errorf("%s on 2026-02-17: visible=%v determined=%v", id, r.IsVisible, r.Determined)
		}
		if r := after.CriteriaResults[id]; !r.IsVisible {
			t.Errorf("%s on 2026-02-18 not visible: %s", id, r.AdditionalInfo)
		}
	}
}

func TestCalculateHilalVisibilityHijri(t *testing.T) {
	e := newEngine(t, nil)
	r, err := e.CalculateHilalVisibilityHijri(sukabumi, 1447, 9, 1)
	if err != nil {
		t.Fatalf("CalculateHilalVisibilityHijri() error = %v", err)
	}
	want, _ := e.HijriToGregorian(1447, 9, 1)
	if r.ObservationDate != want {
		t.Errorf("observation date = %s, want %s", r.ObservationDate, want)
	}

	if _, err := e.CalculateHilalVisibilityHijri(sukabumi, 1447, 13, 1); !IsInputError(err) {
		t.Errorf("month 13: error = %v, want input error", err)
	}
}

func TestPartialResult(t *testing.T) {
	e := newEngine(t, nil)
	r, err := e.CalculateHilalVisibility(arctic, 2025, 3, 8)
	if err != nil {
		t.Fatalf("CalculateHilalVisibility() error = %v", err)
	}
	if !r.Partial {
		t.Fatal("expected a partial result for a circumpolar Moon")
	}
	if _, ok := r.Ephemeris.Failures["moonset"]; !ok {
		t.Errorf("failures = %v, want moonset", r.Ephemeris.Failures)
	}
}

func TestNoSunset(t *testing.T) {
	e := newEngine(t, nil)
	_, err := e.CalculateHilalVisibility(arctic, 2024, 6, 21)
	if !errors.Is(err, astro.ErrNoEvent) {
		t.Errorf("error = %v, want ErrNoEvent", err)
	}
}

func TestInputErrors(t *testing.T) {
	e := newEngine(t, nil)

	_, err := e.CalculateHilalVisibility(astro.Location{Latitude: 91}, 2026, 2, 18)
	if !IsInputError(err) {
		t.Errorf("latitude 91: error = %v, want input error", err)
	}
	_, err = e.CalculateHilalVisibility(sukabumi, 2026, 2, 30)
	if !IsInputError(err) {
		t.Errorf("February 30: error = %v, want input error", err)
	}
	_, err = e.EvaluateCriterion(sukabumi, astro.Date{Year: 2026, Month: 2, Day: 18}, "Kriteria99")
	if !errors.Is(err, criteria.ErrUnknownCriterion) {
		t.Errorf("unknown criterion: error = %v", err)
	}
}

func TestCriteriaOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	high := 20.0
	off := false
	cfg.Criteria = []config.CriterionData{
		{ID: "mabims", MinAltitude: &high},
		{ID: "Turkey", Enabled: &off},
	}
	e := newEngine(t, cfg)

	r, err := e.CalculateHilalVisibility(sukabumi, 2026, 2, 18)
	if err != nil {
		t.Fatal(err)
	}
	if r.CriteriaResults["MABIMS"].IsVisible {
		t.Error("MABIMS visible with a 20° altitude threshold")
	}
	if _, ok := r.CriteriaResults["Turkey"]; ok {
		t.Error("disabled criterion was evaluated")
	}
}

func TestPrayerTimes(t *testing.T) {
	jakarta := astro.Location{Name: "Jakarta", Latitude: -6.2, Longitude: 106.8167, Elevation: 8, Timezone: 7}
	d := astro.Date{Year: 2024, Month: 3, Day: 11}

	base, err := newEngine(t, nil).GetPrayerTimes(jakarta, d)
	if err != nil {
		t.Fatalf("GetPrayerTimes() error = %v", err)
	}
	if base.Method != "Kemenag" || base.Fajr == nil || base.Maghrib == nil {
		t.Fatalf("unexpected times: %+v", base)
	}

	cfg := config.DefaultConfig()
	cfg.Prayer.FajrAngle = 18
	shallow, err := newEngine(t, cfg).GetPrayerTimes(jakarta, d)
	if err != nil {
		t.Fatal(err)
	}
	if shallow.Fajr.UT <= base.Fajr.UT {
		t.Errorf("fajr at 18° (%s) should follow fajr at 20° (%s)", shallow.Fajr.Clock, base.Fajr.Clock)
	}
}

func TestRunValidationTests(t *testing.T) {
	r := newEngine(t, nil).RunValidationTests()
	if !r.Success {
		for _, d := range r.Details {
			if !d.Passed {
				t.Errorf("%s: expected %v, got %v (residual %.3f %s, error %q)",
					d.Name, d.Expected, d.Actual, d.Residual, d.Unit, d.Error)
			}
		}
		t.Fatalf("validation failed: %s", r.Message)
	}
	if len(r.Details) != 14 {
		t.Errorf("got %d checks, want 14", len(r.Details))
	}
	if r.MaxRatio > 1 || r.MeanRatio > r.MaxRatio {
		t.Errorf("ratios mean=%v max=%v", r.MeanRatio, r.MaxRatio)
	}
}

func TestObservedCalendar(t *testing.T) {
	e := newEngine(t, nil)
	cal, err := e.ObservedCalendar(sukabumi, "mabims")
	if err != nil {
		t.Fatalf("ObservedCalendar() error = %v", err)
	}

	m, err := cal.MonthStart(1447, 9)
	if err != nil {
		t.Fatalf("MonthStart() error = %v", err)
	}
	if want := (astro.Date{Year: 2026, Month: 2, Day: 19}); m.Start != want {
		t.Errorf("1 Ramadan 1447 = %s, want %s", m.Start, want)
	}
	if m.Sighting == nil || *m.Sighting != (astro.Date{Year: 2026, Month: 2, Day: 18}) {
		t.Errorf("sighting = %v, want 2026-02-18", m.Sighting)
	}
	if m.Criterion != "MABIMS" || m.MonthName != "Ramadan" {
		t.Errorf("month = %+v", m)
	}

	h, err := cal.GregorianToHijri(2026, 2, 19)
	if err != nil {
		t.Fatal(err)
	}
	if h.Year != 1447 || h.Month != 9 || h.Day != 1 {
		t.Errorf("2026-02-19 = %s, want 1447-09-01", h)
	}
	h, err = cal.GregorianToHijri(2026, 2, 18)
	if err != nil {
		t.Fatal(err)
	}
	if h.Month != 8 || h.Day < 29 {
		t.Errorf("2026-02-18 = %s, want the last day of Sha'ban", h)
	}

	if _, err := e.ObservedCalendar(sukabumi, "Kriteria99"); !errors.Is(err, criteria.ErrUnknownCriterion) {
		t.Errorf("unknown criterion: error = %v", err)
	}
}
