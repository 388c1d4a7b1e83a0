package criteria

import (
	"fmt"
	"math"
	"strings"

	"github.com/chrissnell/hilal/pkg/ephemeris"
	"github.com/soniakeys/meeus/v3/base"
)

// Visibility levels, graded for zone maps.
const (
	LevelNone        = iota // not visible
	LevelOpticalOnly        // optical aid only
	LevelOpticalAid         // optical aid may be needed to find it
	LevelNakedEye           // naked eye under good conditions
	LevelEasy               // easily visible
)

// Result is the outcome of one criterion. Values records every measured
// quantity the decision used.
type Result struct {
	ID             string             `json:"id"`
	CriteriaName   string             `json:"criteria_name"`
	IsVisible      bool               `json:"is_visible"`
	Determined     bool               `json:"determined"`
	VisibilityType string             `json:"visibility_type"`
	Class          string             `json:"class,omitempty"`
	AdditionalInfo string             `json:"additional_info"`
	QValue         *float64           `json:"q_value,omitempty"`
	Level          int                `json:"level"`
	Values         map[string]float64 `json:"values,omitempty"`
}

// Evaluate applies the criterion with the given ID. An unknown ID returns
// ErrUnknownCriterion. When a required snapshot field is missing the result
// is returned undetermined together with a *CriterionUndefinedError.
func (e *Evaluator) Evaluate(s *ephemeris.Snapshot, id string) (Result, error) {
	c, ok := e.Lookup(id)
	if !ok {
		return Result{}, fmt.Errorf("%q: %w", id, ErrUnknownCriterion)
	}
	return Evaluate(s, c)
}

// EvaluateAll applies every enabled criterion. Undetermined criteria are
// present with Determined=false.
func (e *Evaluator) EvaluateAll(s *ephemeris.Snapshot) map[string]Result {
	out := make(map[string]Result, len(e.criteria))
	for _, c := range e.Criteria() {
		r, _ := Evaluate(s, c)
		out[c.ID] = r
	}
	return out
}

// Evaluate applies a single criterion record.
func Evaluate(s *ephemeris.Snapshot, c Criterion) (Result, error) {
	if err := c.normalize(); err != nil {
		return Result{}, err
	}
	r := Result{
		ID:             c.ID,
		CriteriaName:   c.Name,
		VisibilityType: c.VisibilityType,
		Values:         make(map[string]float64),
	}

	var err error
	switch c.Kind {
	case KindOdeh:
		evalOdeh(s, c, &r)
	case KindYallop:
		evalYallop(s, c, &r)
	default:
		err = evalThreshold(s, c, &r)
	}
	if err != nil {
		r.IsVisible = false
		r.Level = LevelNone
		r.QValue = nil
		r.AdditionalInfo = err.Error()
		return r, err
	}
	r.Determined = true
	return r, nil
}

func evalThreshold(s *ephemeris.Snapshot, c Criterion, r *Result) error {
	var (
		parts     []string
		failed    bool
		undefined error
	)
	margin, hasMargin := math.Inf(1), false

	if c.ConjunctionBefore != "" {
		ok, err := conjunctionRule(s, c)
		if err != nil {
			undefined = err
		} else {
			failed = !ok
			parts = append(parts, fmt.Sprintf("Conjunction before %s: %t", ruleLabel(c.ConjunctionBefore), ok))
		}
	}

	for _, cond := range c.All {
		v, err := measure(s, c, cond.Field)
		if err != nil {
			if undefined == nil {
				undefined = err
			}
			continue
		}
		ok := cond.holds(v)
		failed = failed || !ok
		r.Values[cond.Field] = v
		parts = append(parts, describe(cond, v, ok))
		if angular(cond.Field) {
			margin, hasMargin = math.Min(margin, v-cond.Value), true
		}
	}

	if len(c.Any) > 0 {
		anyOK := false
		anyMargin, anyHasMargin := math.Inf(-1), false
		var anyUndefined error
		for _, cond := range c.Any {
			v, err := measure(s, c, cond.Field)
			if err != nil {
				anyUndefined = err
				continue
			}
			ok := cond.holds(v)
			anyOK = anyOK || ok
			r.Values[cond.Field] = v
			parts = append(parts, describe(cond, v, ok))
			if angular(cond.Field) {
				anyMargin, anyHasMargin = math.Max(anyMargin, v-cond.Value), true
			}
		}
		switch {
		case anyOK:
		case anyUndefined != nil:
			if undefined == nil {
				undefined = anyUndefined
			}
		default:
			failed = true
		}
		if anyHasMargin {
			margin, hasMargin = math.Min(margin, anyMargin), true
		}
	}

	// A condition that definitely fails decides the result even when
	// others could not be measured.
	if undefined != nil && !failed {
		return undefined
	}

	r.IsVisible = !failed
	if r.IsVisible {
		r.Level = LevelNakedEye
	}
	if hasMargin {
		r.QValue = &margin
	}
	r.AdditionalInfo = strings.Join(parts, ", ")
	return nil
}

// Odeh (2004): V = ARCV − (−0.1018W³ + 0.7319W² − 6.3226W + 7.1651).
func evalOdeh(s *ephemeris.Snapshot, c Criterion, r *Result) {
	arcv := crescent(s, c.AltitudeFrame).RelativeAltitude
	w := s.Topocentric.CrescentWidth
	v := arcv - base.Horner(w, 7.1651, -6.3226, 0.7319, -0.1018)

	r.Values["arcv"] = arcv
	r.Values[FieldCrescentWidth] = w
	r.QValue = &v

	switch {
	case v >= 5.65:
		r.Class, r.Level = "A", LevelEasy
		r.AdditionalInfo = "visible by naked eye"
	case v >= 2:
		r.Class, r.Level = "B", LevelNakedEye
		r.AdditionalInfo = "visible by optical aid, could be seen by naked eye"
	case v >= -0.96:
		r.Class, r.Level = "C", LevelOpticalOnly
		r.AdditionalInfo = "visible by optical aid only"
	default:
		r.Class, r.Level = "D", LevelNone
		r.AdditionalInfo = "not visible even with optical aid"
	}
	r.IsVisible = r.Level > LevelNone
	r.AdditionalInfo = fmt.Sprintf("ARCV: %.2f°, Width: %.2f', V: %.3f (%s)", arcv, w, v, r.AdditionalInfo)
	unborn(s, r)
}

// Yallop (1997): q = (ARCV − (11.8371 − 6.3226W + 0.7319W² − 0.1018W³)) / 10.
func evalYallop(s *ephemeris.Snapshot, c Criterion, r *Result) {
	arcv := crescent(s, c.AltitudeFrame).RelativeAltitude
	w := s.Topocentric.CrescentWidth
	q := (arcv - base.Horner(w, 11.8371, -6.3226, 0.7319, -0.1018)) / 10

	r.Values["arcv"] = arcv
	r.Values[FieldCrescentWidth] = w
	r.QValue = &q

	var note string
	switch {
	case q >= 0.216:
		r.Class, r.Level, note = "A", LevelEasy, "easily visible"
	case q >= -0.014:
		r.Class, r.Level, note = "B", LevelNakedEye, "visible under perfect conditions"
	case q >= -0.160:
		r.Class, r.Level, note = "C", LevelOpticalAid, "may need optical aid to find"
	case q >= -0.232:
		r.Class, r.Level, note = "D", LevelOpticalOnly, "will need optical aid"
	case q >= -0.293:
		r.Class, r.Level, note = "E", LevelNone, "not visible with a telescope"
	default:
		r.Class, r.Level, note = "F", LevelNone, "not visible, below the Danjon limit"
	}
	r.IsVisible = r.Level > LevelNone
	r.AdditionalInfo = fmt.Sprintf("ARCV: %.2f°, Width: %.2f', q: %.3f (%s)", arcv, w, q, note)
	unborn(s, r)
}

// unborn overrides a curve result when the crescent does not exist yet.
func unborn(s *ephemeris.Snapshot, r *Result) {
	if s.Conjunction == nil || s.MoonBorn {
		return
	}
	r.IsVisible = false
	r.Level = LevelNone
	r.AdditionalInfo += ", conjunction after sunset"
}

func conjunctionRule(s *ephemeris.Snapshot, c Criterion) (bool, error) {
	if s.Conjunction == nil {
		return false, undefinedField(s, c, "conjunction")
	}
	if c.ConjunctionBefore == BeforeMidnightUT {
		return s.Conjunction.UT < s.Date.JD()+1, nil
	}
	return s.ConjunctionBeforeSunset, nil
}

func ruleLabel(rule string) string {
	if rule == BeforeMidnightUT {
		return "24:00 UT"
	}
	return "sunset"
}

func crescent(s *ephemeris.Snapshot, f Frame) ephemeris.Crescent {
	if f == Geocentric {
		return s.Geocentric
	}
	return s.Topocentric
}

func moonFrame(s *ephemeris.Snapshot, f Frame) ephemeris.Frame {
	if f == Geocentric {
		return s.Moon.Geocentric
	}
	return s.Moon.Topocentric
}

func measure(s *ephemeris.Snapshot, c Criterion, field string) (float64, error) {
	switch field {
	case FieldAltitude:
		cr := crescent(s, c.AltitudeFrame)
		alt := cr.MoonAltitude
		if c.Refracted {
			alt = cr.MoonAiryAltitude
		}
		sd := moonFrame(s, c.AltitudeFrame).Semidiameter
		switch c.Limb {
		case LimbUpper:
			alt += sd
		case LimbLower:
			alt -= sd
		}
		return alt, nil
	case FieldElongation:
		return crescent(s, c.ElongationFrame).Elongation, nil
	case FieldAgeHours:
		switch {
		case s.MoonAgeHours != nil:
			return *s.MoonAgeHours, nil
		case s.HoursToConjunction != nil:
			return -*s.HoursToConjunction, nil
		}
		return 0, undefinedField(s, c, "conjunction")
	case FieldLagMinutes:
		if s.LagMinutes == nil {
			return 0, undefinedField(s, c, "moonset")
		}
		return *s.LagMinutes, nil
	case FieldIllumination:
		return s.Topocentric.Illumination, nil
	case FieldCrescentWidth:
		return s.Topocentric.CrescentWidth, nil
	}
	return 0, fmt.Errorf("criterion %s: unknown field %q", c.ID, field)
}

func undefinedField(s *ephemeris.Snapshot, c Criterion, event string) error {
	reason := s.Failures[event]
	if reason == "" {
		reason = "not computed"
	}
	return &CriterionUndefinedError{Criterion: c.ID, Field: event, Reason: reason}
}

func angular(field string) bool {
	return field == FieldAltitude || field == FieldElongation
}

var fieldLabels = map[string]struct{ label, unit string }{
	FieldAltitude:      {"Altitude", "°"},
	FieldElongation:    {"Elongation", "°"},
	FieldAgeHours:      {"Age", "h"},
	FieldLagMinutes:    {"Lag", " min"},
	FieldIllumination:  {"Illumination", "%"},
	FieldCrescentWidth: {"Width", "'"},
}

func describe(cond Condition, v float64, ok bool) string {
	l := fieldLabels[cond.Field]
	mark := "ok"
	if !ok {
		mark = "fails"
	}
	return fmt.Sprintf("%s: %.2f%s (%s %g, %s)", l.label, v, l.unit, cond.Op, cond.Value, mark)
}
