package ephemeris

import (
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/calendar"
)

// Event is an instant rendered both as Julian Days and as observer-local
// civil time.
type Event struct {
	astro.JulianInstant
	Local time.Time `json:"local"`
}

func newEvent(j astro.JulianInstant, tz float64) *Event {
	return &Event{JulianInstant: j, Local: j.Local(tz)}
}

// Frame is one body's position in one reference frame (geocentric or
// topocentric). Angles are degrees.
type Frame struct {
	Ecliptic           astro.Ecliptic   `json:"ecliptic"`
	ApparentEcliptic   astro.Ecliptic   `json:"apparent_ecliptic"`
	Equatorial         astro.Equatorial `json:"equatorial"`
	ApparentEquatorial astro.Equatorial `json:"apparent_equatorial"`

	// Horizontal is airless: geometric altitude, no refraction.
	Horizontal astro.Horizontal `json:"horizontal"`
	// AiryAltitude adds atmospheric bending. RefractionValid is false when
	// the body is too far below the horizon for the bending model; the
	// altitude is then left uncorrected.
	AiryAltitude    float64 `json:"airy_altitude"`
	Refraction      float64 `json:"refraction"`
	RefractionValid bool    `json:"refraction_valid"`

	DistanceKm   float64 `json:"distance_km"`
	Semidiameter float64 `json:"semidiameter"`
}

// Body holds both frames for the Sun or the Moon.
type Body struct {
	Geocentric         Frame   `json:"geocentric"`
	Topocentric        Frame   `json:"topocentric"`
	HorizontalParallax float64 `json:"horizontal_parallax"`
}

// Crescent is the Sun-Moon geometry that visibility criteria consume.
// Angles are degrees unless noted.
type Crescent struct {
	Elongation    float64 `json:"elongation"`
	PhaseAngle    float64 `json:"phase_angle"`
	Illumination  float64 `json:"illumination"`   // percent
	CrescentWidth float64 `json:"crescent_width"` // arcminutes

	// RelativeAltitude is the airless altitude of the Moon minus that of
	// the Sun, the arc of vision (ARCV).
	RelativeAltitude float64 `json:"relative_altitude"`
	// RelativeAzimuth is the Sun's azimuth minus the Moon's, (-180, 180].
	RelativeAzimuth float64 `json:"relative_azimuth"`

	MoonAltitude      float64 `json:"moon_altitude"`      // airless, center
	MoonAiryAltitude  float64 `json:"moon_airy_altitude"` // refracted, center
	UpperLimbAltitude float64 `json:"upper_limb_altitude"`
	LowerLimbAltitude float64 `json:"lower_limb_altitude"`

	BrightLimbAngle float64 `json:"bright_limb_angle"`
}

// Observation is the state of both bodies at one instant for one observer.
type Observation struct {
	Instant         astro.JulianInstant `json:"instant"`
	DeltaT          float64             `json:"delta_t"` // seconds
	DeltaTValidated bool                `json:"delta_t_validated"`
	Nutation        astro.Nutation      `json:"nutation"`
	Aberration      float64             `json:"aberration"`
	LocalSidereal   float64             `json:"local_sidereal_time"`

	Sun  Body `json:"sun"`
	Moon Body `json:"moon"`

	Geocentric  Crescent `json:"geocentric_crescent"`
	Topocentric Crescent `json:"topocentric_crescent"`
}

// Snapshot is the full ephemeris at sunset for one location and date.
// Optional events are nil when they could not be found; Failures then
// names each one with its reason.
type Snapshot struct {
	Location astro.Location `json:"location"`
	Date     astro.Date     `json:"date"`

	Sunset                 Event  `json:"sunset"`
	Moonset                *Event `json:"moonset"`
	Conjunction            *Event `json:"conjunction"`
	TopocentricConjunction *Event `json:"topocentric_conjunction"`
	// BestTime is Yallop's best time, sunset + 4/9 of the lag.
	BestTime *Event `json:"best_time"`

	// LagMinutes is moonset − sunset; negative when the Moon sets first.
	// LagHours carries the same interval in hours.
	LagMinutes *float64 `json:"lag_minutes"`
	LagHours   *float64 `json:"lag_hours"`

	// MoonBorn is false when the governing conjunction falls after sunset;
	// MoonAgeHours is then nil and HoursToConjunction says how long remains.
	MoonBorn                bool     `json:"moon_born"`
	ConjunctionBeforeSunset bool     `json:"conjunction_before_sunset"`
	MoonAgeHours            *float64 `json:"moon_age_hours"`
	HoursToConjunction      *float64 `json:"hours_to_conjunction,omitempty"`

	Observation

	HijriDate calendar.HijriDate `json:"hijri_date"`
	DayName   string             `json:"day_name"`

	Failures map[string]string `json:"failures,omitempty"`
}

// Partial reports whether any event could not be computed.
func (s *Snapshot) Partial() bool {
	return len(s.Failures) > 0
}
