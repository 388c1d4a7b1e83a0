package astro

import (
	"fmt"
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Location is an observer on the Earth's surface.
type Location struct {
	Name      string  `json:"name,omitempty" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Elevation float64 `json:"elevation" yaml:"elevation"` // meters above sea level
	Timezone  float64 `json:"timezone" yaml:"timezone"`   // UTC offset in hours
}

// Validate rejects coordinates that would otherwise propagate NaNs through
// the trigonometry.
func (l Location) Validate() error {
	switch {
	case !finite(l.Latitude) || l.Latitude < -90 || l.Latitude > 90:
		return &InvalidInputError{Field: "latitude", Value: l.Latitude, Reason: "must be within [-90, 90]"}
	case !finite(l.Longitude) || l.Longitude < -180 || l.Longitude > 180:
		return &InvalidInputError{Field: "longitude", Value: l.Longitude, Reason: "must be within [-180, 180]"}
	case !finite(l.Elevation) || l.Elevation < 0 || l.Elevation >= 10000:
		return &InvalidInputError{Field: "elevation", Value: l.Elevation, Reason: "must be within [0, 10000) meters"}
	case !finite(l.Timezone) || l.Timezone < -14 || l.Timezone > 14:
		return &InvalidInputError{Field: "timezone", Value: l.Timezone, Reason: "must be within [-14, 14] hours"}
	}
	return nil
}

// Zone returns a fixed time.Location for the observer's UTC offset.
func (l Location) Zone() *time.Location {
	return FixedZone(l.Timezone)
}

// FixedZone builds a time.Location named after its offset, e.g. "UTC+7".
func FixedZone(tz float64) *time.Location {
	offset := int(math.Round(tz * 3600))
	if offset == 0 {
		return time.UTC
	}
	h := offset / 3600
	m := offset % 3600 / 60
	if m < 0 {
		m = -m
	}
	name := fmt.Sprintf("UTC%+d", h)
	if m != 0 {
		name = fmt.Sprintf("UTC%+d:%02d", h, m)
	}
	return time.FixedZone(name, offset)
}

// Date is a proleptic Gregorian calendar date.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Validate checks the month and the day against the month length.
func (d Date) Validate() error {
	if d.Month < 1 || d.Month > 12 {
		return &InvalidInputError{Field: "month", Value: d.Month, Reason: "must be within [1, 12]"}
	}
	if n := DaysInMonth(d.Year, d.Month); d.Day < 1 || d.Day > n {
		return &InvalidInputError{Field: "day", Value: d.Day, Reason: fmt.Sprintf("must be within [1, %d]", n)}
	}
	return nil
}

// JD returns the Julian Day of 0h UT on the date.
func (d Date) JD() float64 {
	return julian.CalendarGregorianToJD(d.Year, d.Month, float64(d.Day))
}

// AddDays moves the date by n days.
func (d Date) AddDays(n int) Date {
	return DateFromJD(d.JD() + float64(n))
}

// Weekday is the day of the week, Sunday = 0.
func (d Date) Weekday() time.Weekday {
	return time.Weekday(int(math.Floor(d.JD()+1.5)) % 7)
}

// DateFromJD returns the proleptic Gregorian date containing jd (UT).
// julian.JDToCalendar switches to the Julian calendar before 1582, so the
// day count goes through time.Time, which is Gregorian for all years.
func DateFromJD(jd float64) Date {
	days := math.Floor(jd - unixEpochJD + 1e-9)
	return DateOf(time.Unix(int64(days)*86400, 0).UTC())
}

const unixEpochJD = 2440587.5

// DateOf returns the date of t in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// DaysInMonth returns the Gregorian month length.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if julian.LeapYearGregorian(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
