package hilal

import (
	"errors"
	"fmt"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/calendar"
	"github.com/chrissnell/hilal/pkg/criteria"
)

// ObservedCalendar derives month starts from crescent sightings predicted
// by one criterion at one location. Its dates can differ from the tabular
// calendar in pkg/calendar by a day or two.
type ObservedCalendar struct {
	Location    astro.Location
	CriterionID string

	engine *Engine
}

// ObservedMonth explains how a month start was decided.
type ObservedMonth struct {
	Year        int                 `json:"year"`
	Month       int                 `json:"month"`
	MonthName   string              `json:"month_name"`
	Start       astro.Date          `json:"start"`
	Conjunction astro.JulianInstant `json:"conjunction"`
	// Sighting is the evening the crescent is first predicted visible. It
	// is nil when the month is completed to 30 days instead.
	Sighting  *astro.Date `json:"sighting,omitempty"`
	Criterion string      `json:"criterion"`
}

// ObservedCalendar returns a sighting-based calendar for loc.
func (e *Engine) ObservedCalendar(loc astro.Location, criterionID string) (*ObservedCalendar, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	c, ok := e.criteria.Lookup(criterionID)
	if !ok {
		return nil, fmt.Errorf("%q: %w", criterionID, criteria.ErrUnknownCriterion)
	}
	return &ObservedCalendar{Location: loc, CriterionID: c.ID, engine: e}, nil
}

// MonthStart finds the first day of Hijri month hm of year hy. The
// crescent is looked for on the evening of the conjunction's local date and
// on the following evening; the month begins the day after the first
// positive evening, or two days after the conjunction date otherwise.
func (o *ObservedCalendar) MonthStart(hy, hm int) (ObservedMonth, error) {
	approx, err := calendar.HijriToGregorian(hy, hm, 1)
	if err != nil {
		return ObservedMonth{}, err
	}
	conj, err := o.engine.finder.FindConjunction(astro.NewInstant(approx.JD()))
	if err != nil {
		return ObservedMonth{}, fmt.Errorf("conjunction for %s: %w", calendar.HijriDate{Year: hy, Month: hm, Day: 1}, err)
	}

	m := ObservedMonth{
		Year:        hy,
		Month:       hm,
		MonthName:   calendar.MonthName(hm),
		Conjunction: conj,
		Criterion:   o.CriterionID,
	}
	dc := astro.DateOf(conj.Local(o.Location.Timezone))
	for _, evening := range []astro.Date{dc, dc.AddDays(1)} {
		r, err := o.engine.EvaluateCriterion(o.Location, evening, o.CriterionID)
		if err != nil && !errors.Is(err, criteria.ErrCriterionUndefined) {
			return ObservedMonth{}, fmt.Errorf("evening of %s: %w", evening, err)
		}
		if r.IsVisible {
			sighting := evening
			m.Sighting = &sighting
			m.Start = evening.AddDays(1)
			return m, nil
		}
	}
	m.Start = dc.AddDays(2)
	return m, nil
}

// GregorianToHijri converts a civil date using observed month starts.
func (o *ObservedCalendar) GregorianToHijri(year, month, day int) (calendar.HijriDate, error) {
	tab, err := calendar.GregorianToHijri(year, month, day)
	if err != nil {
		return calendar.HijriDate{}, err
	}
	g := astro.Date{Year: year, Month: month, Day: day}

	hy, hm := tab.Year, tab.Month
	start, err := o.MonthStart(hy, hm)
	if err != nil {
		return calendar.HijriDate{}, err
	}
	// The tabular month is never more than one month off.
	if g.JD() < start.Start.JD() {
		hy, hm = previousMonth(hy, hm)
		if start, err = o.MonthStart(hy, hm); err != nil {
			return calendar.HijriDate{}, err
		}
	} else {
		ny, nm := nextMonth(hy, hm)
		next, err := o.MonthStart(ny, nm)
		if err != nil {
			return calendar.HijriDate{}, err
		}
		if g.JD() >= next.Start.JD() {
			hy, hm, start = ny, nm, next
		}
	}

	return calendar.HijriDate{
		Year:  hy,
		Month: hm,
		Day:   int(g.JD()-start.Start.JD()) + 1,
	}, nil
}

func previousMonth(y, m int) (int, int) {
	if m == 1 {
		return y - 1, 12
	}
	return y, m - 1
}

func nextMonth(y, m int) (int, int) {
	if m == 12 {
		return y + 1, 1
	}
	return y, m + 1
}
