package topo

import (
	"math"
	"testing"

	"github.com/chrissnell/hilal/pkg/astro"
)

func TestParallaxConstants(t *testing.T) {
	// Palomar Observatory.
	s, c := ParallaxConstants(33+21.0/60+22.0/3600, 1706)
	if math.Abs(s-0.546861) > 1e-5 || math.Abs(c-0.836339) > 1e-5 {
		t.Errorf("ParallaxConstants() = %.6f, %.6f", s, c)
	}
}

func TestApplyParallax(t *testing.T) {
	// Mars from Palomar, 2003 August 28, 3:17 UT.
	loc := astro.Location{Latitude: 33 + 21.0/60 + 22.0/3600, Longitude: -116.8625, Elevation: 1706}
	geo := astro.Equatorial{RightAscension: 339.530208, Declination: -15.771083}
	lst := geo.RightAscension + 288.7958
	topo := ApplyParallax(geo, 0.37276*149597870.7, loc, lst)

	if math.Abs(topo.Equatorial.RightAscension-339.5355833) > 1e-4 {
		t.Errorf("topocentric RA = %.6f, want 339.535583", topo.Equatorial.RightAscension)
	}
	if math.Abs(topo.Equatorial.Declination-(-15.775)) > 2e-4 {
		t.Errorf("topocentric Dec = %.6f, want -15.775000", topo.Equatorial.Declination)
	}
}

func TestParallaxVanishesWithDistance(t *testing.T) {
	loc := astro.Location{Latitude: -7.07, Longitude: 106.53, Elevation: 10}
	geo := astro.Equatorial{RightAscension: 330, Declination: -10}
	lst := 300.0

	prev := math.Inf(1)
	for _, d := range []float64{384400, 1e6, 1e8, 1e12} {
		topo := ApplyParallax(geo, d, loc, lst)
		diff := astro.EquatorialSeparation(geo, topo.Equatorial)
		if diff >= prev {
			t.Errorf("shift did not shrink at distance %g: %.8f >= %.8f", d, diff, prev)
		}
		prev = diff
	}
	if limit := HorizontalParallax(1e12); prev > limit {
		t.Errorf("shift at 1e12 km = %g deg, want at most the horizontal parallax %g", prev, limit)
	}
}

func TestMoonParallaxBound(t *testing.T) {
	// Lunar parallax never exceeds the horizontal parallax, about one degree.
	loc := astro.Location{Latitude: 21.4, Longitude: 39.8}
	for _, dec := range []float64{-28, -10, 0, 10, 28} {
		for lst := 0.0; lst < 360; lst += 15 {
			geo := astro.Equatorial{RightAscension: 100, Declination: dec}
			topo := ApplyParallax(geo, 356500, loc, lst)
			gh := astro.EquatorialToHorizontal(geo, loc.Latitude, lst)
			th := astro.EquatorialToHorizontal(topo.Equatorial, loc.Latitude, lst)
			d := gh.Altitude - th.Altitude
			if d < -1e-3 || d > HorizontalParallax(356500)+1e-9 {
				t.Fatalf("dec=%v lst=%v: altitude drop %.5f outside [0, %.5f]", dec, lst, d, HorizontalParallax(356500))
			}
		}
	}
}

func TestSemidiameter(t *testing.T) {
	if sd := Semidiameter(384400, MoonRadiusKm) * 60; sd < 15.4 || sd > 15.6 {
		t.Errorf("Moon semidiameter = %.3f', want ~15.5'", sd)
	}
	if sd := TopocentricSemidiameter(0.25, 384400, 378000); sd <= 0.25 {
		t.Errorf("topocentric semidiameter should grow as the Moon nears: %.5f", sd)
	}
	if hp := HorizontalParallax(384400); math.Abs(hp-0.9507) > 1e-3 {
		t.Errorf("HorizontalParallax(384400) = %.4f", hp)
	}
	if hp := HorizontalParallaxAU(1) * 3600; math.Abs(hp-8.794) > 1e-3 {
		t.Errorf("HorizontalParallaxAU(1) = %.4f arcsec", hp)
	}
}

func TestRefraction(t *testing.T) {
	atm := StandardAtmosphere

	tests := []struct {
		name     string
		model    RefractionModel
		altitude float64
		min, max float64
		ok       bool
	}{
		{"airless at horizon", Airless, 0, 0, 0, true},
		{"airless below horizon", Airless, -5, 0, 0, true},
		{"airy at horizon", Airy, 0, 0.45, 0.52, true},
		{"airy at 3 degrees", Airy, 3, 0.2, 0.26, true},
		{"airy at 45 degrees", Airy, 45, 0.013, 0.019, true},
		{"airy below floor", Airy, -2, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := atm.Refraction(tt.model, tt.altitude)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if r < tt.min || r > tt.max {
				t.Errorf("Refraction() = %.4f, want within [%v, %v]", r, tt.min, tt.max)
			}
		})
	}

	cold := Atmosphere{PressureMbar: 1030, TemperatureC: -20}
	r1, _ := atm.Refraction(Airy, 1)
	r2, _ := cold.Refraction(Airy, 1)
	if r2 <= r1 {
		t.Error("cold dense air should bend more")
	}

	apparent, _ := atm.ApparentAltitude(Airy, 5)
	back, ok := atm.TrueAltitude(apparent)
	if !ok || math.Abs(back-5) > 0.01 {
		t.Errorf("TrueAltitude(ApparentAltitude(5)) = %.4f", back)
	}
}

func TestDip(t *testing.T) {
	if d := Dip(0); d != 0 {
		t.Errorf("Dip(0) = %v", d)
	}
	if d := Dip(100); math.Abs(d-0.293) > 1e-9 {
		t.Errorf("Dip(100) = %v", d)
	}
	if Airy.String() != "airy" || Airless.String() != "airless" {
		t.Error("unexpected model names")
	}
}
