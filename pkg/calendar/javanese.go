package calendar

import (
	"math"

	"github.com/chrissnell/hilal/pkg/astro"
)

var pasaranNames = [5]string{"Legi", "Pahing", "Pon", "Wage", "Kliwon"}

// Indonesian weekday names, Monday first to line up with JD day numbers.
var weekdayNames = [7]string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}

func dayNumber(d astro.Date) int {
	return int(math.Floor(d.JD() + 0.5))
}

// Pasaran returns the day of the Javanese five-day market week.
func Pasaran(d astro.Date) string {
	return pasaranNames[mod(dayNumber(d), 5)]
}

// WeekdayName returns the Indonesian name of the weekday.
func WeekdayName(d astro.Date) string {
	return weekdayNames[mod(dayNumber(d), 7)]
}

// DayName combines weekday and pasaran, e.g. "Jumat Legi".
func DayName(d astro.Date) string {
	return WeekdayName(d) + " " + Pasaran(d)
}
