package astro

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestToJulianDay(t *testing.T) {
	tests := []struct {
		name     string
		date     Date
		hours    float64
		timezone float64
		wantJD   float64
	}{
		{"J2000 epoch", Date{2000, 1, 1}, 12, 0, 2451545.0},
		{"Sputnik launch", Date{1957, 10, 4}, 0.81 * 24, 0, 2436116.31},
		{"local time west of Greenwich", Date{1987, 4, 10}, 14.35, -5, 2446896.30625},
		{"local time east of Greenwich", Date{2026, 2, 18}, 7, 7, 2461089.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToJulianDay(tt.date, tt.hours, tt.timezone)
			if err != nil {
				t.Fatalf("ToJulianDay() error = %v", err)
			}
			if math.Abs(got.UT-tt.wantJD) > 1e-6 {
				t.Errorf("ToJulianDay() UT = %.6f, want %.6f", got.UT, tt.wantJD)
			}
			if got.TT <= got.UT {
				t.Errorf("expected TT > UT in modern era, got TT=%.6f UT=%.6f", got.TT, got.UT)
			}
		})
	}
}

func TestToJulianDayRejectsBadFields(t *testing.T) {
	tests := []struct {
		name  string
		date  Date
		hours float64
		field string
	}{
		{"month 13", Date{2024, 13, 1}, 0, "month"},
		{"month 0", Date{2024, 0, 1}, 0, "month"},
		{"negative day", Date{2024, 1, -1}, 0, "day"},
		{"Feb 30", Date{2024, 2, 30}, 0, "day"},
		{"Feb 29 non-leap", Date{2023, 2, 29}, 0, "day"},
		{"hours out of range", Date{2024, 1, 1}, 25, "hours"},
		{"NaN hours", Date{2024, 1, 1}, math.NaN(), "hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToJulianDay(tt.date, tt.hours, 0)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ie *InvalidInputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestLocationValidate(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		wantErr bool
	}{
		{"Jakarta", Location{Latitude: -6.2, Longitude: 106.8, Elevation: 8, Timezone: 7}, false},
		{"north pole", Location{Latitude: 90, Longitude: 0}, false},
		{"latitude too high", Location{Latitude: 90.1}, true},
		{"longitude too low", Location{Longitude: -180.5}, true},
		{"negative elevation", Location{Elevation: -1}, true},
		{"timezone out of range", Location{Timezone: 15}, true},
		{"NaN latitude", Location{Latitude: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateHelpers(t *testing.T) {
	d := Date{2024, 2, 28}
	if got := d.AddDays(1); got != (Date{2024, 2, 29}) {
		t.Errorf("AddDays(1) = %v", got)
	}
	if got := d.AddDays(2); got != (Date{2024, 3, 1}) {
		t.Errorf("AddDays(2) = %v", got)
	}
	if got := (Date{2026, 2, 18}).Weekday(); got != time.Wednesday {
		t.Errorf("Weekday() = %v, want Wednesday", got)
	}
	if got := DateFromJD(2451545.0); got != (Date{2000, 1, 1}) {
		t.Errorf("DateFromJD() = %v", got)
	}
	if got := DateFromJD(2451544.49); got != (Date{1999, 12, 31}) {
		t.Errorf("DateFromJD() = %v", got)
	}
}

func TestInstantRoundTrip(t *testing.T) {
	ts := time.Date(2024, 4, 8, 18, 21, 0, 0, time.UTC)
	j := InstantFromTime(ts)
	if d := j.Time().Sub(ts); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip drift %v", d)
	}
	back := InstantFromTT(j.TT)
	if math.Abs(back.UT-j.UT)*SecondsPerDay > 0.01 {
		t.Errorf("InstantFromTT drift %.4f s", (back.UT-j.UT)*SecondsPerDay)
	}
	if got := j.Local(7).Format("15:04"); got != "01:21" {
		t.Errorf("Local(7) = %s, want 01:21", got)
	}
}

func TestDeltaT(t *testing.T) {
	tests := []struct {
		name string
		year float64
		min  float64
		max  float64
	}{
		{"1900", 1900, -4, -1},
		{"1950", 1950, 28, 30},
		{"2000", 2000, 63, 65},
		{"2024", 2024, 68, 80},
		{"1600", 1600, 115, 125},
		{"far past", -1000, 25000, 27000},
		{"far future", 3000, 4000, 4500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jd := 2451544.5 + (tt.year-2000)*365.2425
			got := DeltaT(jd)
			if got < tt.min || got > tt.max {
				t.Errorf("DeltaT(%v) = %.2f, want within [%v, %v]", tt.year, got, tt.min, tt.max)
			}
		})
	}
}

func TestDeltaTIsContinuous(t *testing.T) {
	// Adjacent segments of the piecewise model should meet within a few
	// seconds.
	for _, y := range []float64{1700, 1800, 1860, 1900, 1920, 1941, 1961, 1986, 2005, 2050, 2150} {
		jd := 2451544.5 + (y-2000)*365.2425
		before := DeltaT(jd - 1)
		after := DeltaT(jd + 1)
		if math.Abs(after-before) > 3 {
			t.Errorf("discontinuity at %v: %.2f -> %.2f", y, before, after)
		}
	}
	if !DeltaTValidated(2451545) || DeltaTValidated(2451545+200*365.25) {
		t.Error("DeltaTValidated range is wrong")
	}
}

func TestNutationAndObliquity(t *testing.T) {
	// 1987 April 10, 0h TD.
	n := NutationAndObliquity(2446895.5)
	tests := []struct {
		name string
		got  float64
		want float64
		tol  float64
	}{
		{"Δψ", n.Longitude * 3600, -3.788, 0.01},
		{"Δε", n.Obliquity * 3600, 9.443, 0.01},
		{"ε0", n.MeanObliquity, 23 + 26.0/60 + 27.407/3600, 0.5 / 3600},
		{"ε", n.TrueObliquity, 23 + 26.0/60 + 36.850/3600, 0.5 / 3600},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > tt.tol {
			t.Errorf("%s = %.6f, want %.6f", tt.name, tt.got, tt.want)
		}
	}
}

func TestSiderealTime(t *testing.T) {
	// 1987 April 10, 0h UT.
	mean := GreenwichMeanSiderealTime(2446895.5)
	if want := 197.693195; math.Abs(mean-want) > 1e-4 {
		t.Errorf("mean GST = %.6f, want %.6f", mean, want)
	}
	app := GreenwichSiderealTime(2446895.5)
	if want := 197.692230; math.Abs(app-want) > 1e-4 {
		t.Errorf("apparent GST = %.6f, want %.6f", app, want)
	}
	if lst := LocalSiderealTime(2446895.5, -200); lst < 0 || lst >= 360 {
		t.Errorf("LST not normalised: %v", lst)
	}
}

func TestEclipticEquatorial(t *testing.T) {
	// Pollux.
	eq := Equatorial{RightAscension: 116.328942, Declination: 28.026183}
	ecl := EquatorialToEcliptic(eq, 23.4392911)
	if math.Abs(ecl.Longitude-113.215630) > 1e-5 || math.Abs(ecl.Latitude-6.684170) > 1e-5 {
		t.Errorf("EquatorialToEcliptic() = %+v", ecl)
	}
	back := EclipticToEquatorial(ecl, 23.4392911)
	if math.Abs(back.RightAscension-eq.RightAscension) > 1e-8 || math.Abs(back.Declination-eq.Declination) > 1e-8 {
		t.Errorf("round trip = %+v, want %+v", back, eq)
	}
}

func TestEquatorialToHorizontal(t *testing.T) {
	// Venus from the US Naval Observatory, 1987 April 10, 19:21 UT.
	eq := Equatorial{RightAscension: 347.3193375, Declination: -6.719892}
	lst := 128.7378734 - 77.065556
	hz := EquatorialToHorizontal(eq, 38.921389, lst)
	if math.Abs(hz.Altitude-15.1249) > 1e-3 {
		t.Errorf("altitude = %.4f, want 15.1249", hz.Altitude)
	}
	if math.Abs(hz.Azimuth-248.0337) > 1e-3 {
		t.Errorf("azimuth = %.4f, want 248.0337", hz.Azimuth)
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want                   float64
	}{
		{"same point", 10, 10, 10, 10, 0},
		{"along equator", 0, 0, 90, 0, 90},
		{"across wrap", 359, 0, 1, 0, 2},
		{"pole to equator", 0, 90, 123, 0, 90},
		// Arcturus and Spica.
		{"Arcturus-Spica", 213.9154, 19.1825, 201.2983, -11.1614, 32.7930},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("AngularSeparation() = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := NormalizeDegrees(-30); got != 330 {
		t.Errorf("NormalizeDegrees(-30) = %v", got)
	}
	if got := NormalizeDegrees180(270); got != -90 {
		t.Errorf("NormalizeDegrees180(270) = %v", got)
	}
	if got := FormatHours(18.285); got != "18:17:06" {
		t.Errorf("FormatHours() = %s", got)
	}
}
