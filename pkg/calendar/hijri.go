// Package calendar implements the arithmetic (tabular) Islamic calendar and
// the Javanese five-day market week.
//
// The tabular calendar uses the civil epoch (1 Muharram 1 AH = Friday
// 16 July 622 Julian) and a 30-year cycle with leap years 2, 5, 7, 10, 13,
// 16, 18, 21, 24, 26 and 29. It is deterministic and exactly invertible; it
// can differ by a day or two from calendars based on crescent sightings.
package calendar

import (
	"fmt"
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
)

// civilEpoch is the Julian Day of 1 Muharram 1 AH at 0h.
const civilEpoch = 1948439.5

// MaxYear bounds the years accepted by conversions.
const MaxYear = 9999

var monthNames = [12]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Ula", "Jumada al-Akhirah", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhu al-Qadah", "Dhu al-Hijjah",
}

// HijriDate is a date in the Islamic calendar.
type HijriDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (h HijriDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d AH", h.Year, h.Month, h.Day)
}

// Format renders the date with the month name, e.g. "1 Ramadan 1445 AH".
func (h HijriDate) Format() string {
	return fmt.Sprintf("%d %s %d AH", h.Day, MonthName(h.Month), h.Year)
}

// MonthName returns the transliterated month name, or "" when out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// IsLeapYear reports whether year has 355 days.
func IsLeapYear(year int) bool {
	return mod(14+11*year, 30) < 11
}

// MonthLength returns 29 or 30. Odd months have 30 days; Dhu al-Hijjah
// gains a day in leap years.
func MonthLength(year, month int) int {
	if month%2 == 1 || month == 12 && IsLeapYear(year) {
		return 30
	}
	return 29
}

// Validate checks the fields against the tabular calendar.
func (h HijriDate) Validate() error {
	switch {
	case h.Year < 1 || h.Year > MaxYear:
		return &astro.InvalidInputError{Field: "hijri year", Value: h.Year, Reason: fmt.Sprintf("must be within [1, %d]", MaxYear)}
	case h.Month < 1 || h.Month > 12:
		return &astro.InvalidInputError{Field: "hijri month", Value: h.Month, Reason: "must be within [1, 12]"}
	case h.Day < 1 || h.Day > MonthLength(h.Year, h.Month):
		return &astro.InvalidInputError{Field: "hijri day", Value: h.Day,
			Reason: fmt.Sprintf("must be within [1, %d]", MonthLength(h.Year, h.Month))}
	}
	return nil
}

// JD returns the Julian Day at 0h UT of the date. The fields are not
// validated.
func (h HijriDate) JD() float64 {
	return float64(h.Day) +
		math.Ceil(29.5*float64(h.Month-1)) +
		float64((h.Year-1)*354) +
		math.Floor(float64(3+11*h.Year)/30) +
		civilEpoch - 1
}

// HijriFromJD returns the tabular Hijri date containing jd.
func HijriFromJD(jd float64) HijriDate {
	jd = math.Floor(jd-0.5) + 0.5
	year := int(math.Floor((30*(jd-civilEpoch) + 10646) / 10631))
	first := HijriDate{Year: year, Month: 1, Day: 1}.JD()
	month := int(math.Min(12, math.Ceil((jd-(29+first))/29.5)+1))
	day := int(jd-HijriDate{Year: year, Month: month, Day: 1}.JD()) + 1
	return HijriDate{Year: year, Month: month, Day: day}
}

// GregorianToHijri converts a Gregorian date to the tabular Hijri calendar.
func GregorianToHijri(year, month, day int) (HijriDate, error) {
	d := astro.Date{Year: year, Month: month, Day: day}
	if err := d.Validate(); err != nil {
		return HijriDate{}, err
	}
	if d.JD() < civilEpoch {
		return HijriDate{}, &astro.InvalidInputError{Field: "date", Value: d.String(), Reason: "precedes the Hijri epoch"}
	}
	h := HijriFromJD(d.JD())
	if h.Year > MaxYear {
		return HijriDate{}, &astro.InvalidInputError{Field: "date", Value: d.String(), Reason: "beyond the supported Hijri range"}
	}
	return h, nil
}

// HijriToGregorian converts a tabular Hijri date to the Gregorian calendar.
func HijriToGregorian(year, month, day int) (astro.Date, error) {
	h := HijriDate{Year: year, Month: month, Day: day}
	if err := h.Validate(); err != nil {
		return astro.Date{}, err
	}
	return astro.DateFromJD(h.JD()), nil
}

// YearLength returns 354 or 355.
func YearLength(year int) int {
	if IsLeapYear(year) {
		return 355
	}
	return 354
}

func mod(a, b int) int {
	return (a%b + b) % b
}
