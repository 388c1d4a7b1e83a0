package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SecondsPerDay converts between Julian Day fractions and seconds.
const SecondsPerDay = 86400.0

// JulianInstant is a continuous instant carried in both time scales. TT is
// always UT + ΔT(UT).
type JulianInstant struct {
	UT float64 `json:"jd_ut"`
	TT float64 `json:"jd_tt"`
}

// NewInstant builds an instant from a Julian Day in Universal Time.
func NewInstant(jdUT float64) JulianInstant {
	return JulianInstant{UT: jdUT, TT: jdUT + DeltaT(jdUT)/SecondsPerDay}
}

// InstantFromTT builds an instant from a Julian Ephemeris Day.
func InstantFromTT(jde float64) JulianInstant {
	ut := jde - DeltaT(jde)/SecondsPerDay
	ut = jde - DeltaT(ut)/SecondsPerDay
	return JulianInstant{UT: ut, TT: jde}
}

// InstantFromTime converts a time.Time to a JulianInstant.
func InstantFromTime(t time.Time) JulianInstant {
	return NewInstant(julian.TimeToJD(t))
}

// ToJulianDay converts a civil date, local clock hours and UTC offset into a
// JulianInstant.
func ToJulianDay(d Date, hours, timezone float64) (JulianInstant, error) {
	if err := d.Validate(); err != nil {
		return JulianInstant{}, err
	}
	if !finite(hours) || hours < 0 || hours > 24 {
		return JulianInstant{}, &InvalidInputError{Field: "hours", Value: hours, Reason: "must be within [0, 24]"}
	}
	if !finite(timezone) || timezone < -14 || timezone > 14 {
		return JulianInstant{}, &InvalidInputError{Field: "timezone", Value: timezone, Reason: "must be within [-14, 14] hours"}
	}
	jd := julian.CalendarGregorianToJD(d.Year, d.Month, float64(d.Day)+(hours-timezone)/24)
	return NewInstant(jd), nil
}

// LocalMidnight is the UT Julian Day of 00:00 local civil time on d.
func LocalMidnight(d Date, timezone float64) float64 {
	return d.JD() - timezone/24
}

// Add returns the instant shifted by the given number of days.
func (j JulianInstant) Add(days float64) JulianInstant {
	return NewInstant(j.UT + days)
}

// Time converts the UT Julian Day to a UTC time.Time rounded to the
// millisecond.
func (j JulianInstant) Time() time.Time {
	return julian.JDToTime(j.UT).Round(time.Millisecond)
}

// Local is Time rendered in a fixed UTC offset.
func (j JulianInstant) Local(timezone float64) time.Time {
	return j.Time().In(FixedZone(timezone))
}

// LocalHours is the local clock reading of the instant in decimal hours,
// measured from local midnight of the given date. Values outside [0, 24) mean
// the instant falls on a neighbouring day.
func (j JulianInstant) LocalHours(d Date, timezone float64) float64 {
	return (j.UT - LocalMidnight(d, timezone)) * 24
}

// HoursBetween returns (b - a) in hours.
func HoursBetween(a, b JulianInstant) float64 {
	return (b.UT - a.UT) * 24
}

// FormatHours renders decimal hours as HH:MM:SS, wrapping into [0, 24).
func FormatHours(h float64) string {
	s := int(math.Round(PMod(h, 24) * 3600))
	s %= 86400
	return time.Date(2000, 1, 1, 0, 0, s, 0, time.UTC).Format("15:04:05")
}
