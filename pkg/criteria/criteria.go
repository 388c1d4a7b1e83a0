// Package criteria evaluates crescent visibility criteria against an
// ephemeris snapshot. Each criterion is a data record: a set of threshold
// conditions combined with AND/OR, or one of the published q-value curves.
package criteria

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed criteria.yaml
var defaultTable []byte

var (
	ErrUnknownCriterion   = errors.New("unknown criterion")
	ErrCriterionUndefined = errors.New("criterion undefined")
)

// CriterionUndefinedError reports a snapshot field a criterion needs but
// that could not be computed.
type CriterionUndefinedError struct {
	Criterion string
	Field     string
	Reason    string
}

func (e *CriterionUndefinedError) Error() string {
	return fmt.Sprintf("criterion %s undetermined: %s unavailable: %s", e.Criterion, e.Field, e.Reason)
}

func (e *CriterionUndefinedError) Unwrap() error { return ErrCriterionUndefined }

type Kind string

const (
	KindThreshold Kind = "threshold"
	KindOdeh      Kind = "odeh"
	KindYallop    Kind = "yallop"
)

type Frame string

const (
	Topocentric Frame = "topocentric"
	Geocentric  Frame = "geocentric"
)

type Limb string

const (
	LimbCenter Limb = "center"
	LimbUpper  Limb = "upper"
	LimbLower  Limb = "lower"
)

// Condition fields.
const (
	FieldAltitude      = "altitude"
	FieldElongation    = "elongation"
	FieldAgeHours      = "age_hours"
	FieldLagMinutes    = "lag_minutes"
	FieldIllumination  = "illumination"
	FieldCrescentWidth = "crescent_width"
)

// Conjunction timing rules.
const (
	BeforeSunset     = "sunset"
	BeforeMidnightUT = "midnight_ut"
)

var knownFields = map[string]bool{
	FieldAltitude:      true,
	FieldElongation:    true,
	FieldAgeHours:      true,
	FieldLagMinutes:    true,
	FieldIllumination:  true,
	FieldCrescentWidth: true,
}

// Condition compares one measured quantity with a threshold.
type Condition struct {
	Field string  `yaml:"field" json:"field"`
	Op    string  `yaml:"op" json:"op"`
	Value float64 `yaml:"value" json:"value"`
}

func (c Condition) holds(v float64) bool {
	if c.Op == ">" {
		return v > c.Value
	}
	return v >= c.Value
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Value)
}

// Criterion is one visibility rule. All conditions must hold, and at least
// one of Any when Any is non-empty.
type Criterion struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Authority      string `yaml:"authority" json:"authority"`
	Kind           Kind   `yaml:"kind" json:"kind"`
	VisibilityType string `yaml:"visibility_type" json:"visibility_type"`

	AltitudeFrame   Frame `yaml:"altitude_frame" json:"altitude_frame"`
	Refracted       bool  `yaml:"refracted" json:"refracted"`
	Limb            Limb  `yaml:"limb" json:"limb"`
	ElongationFrame Frame `yaml:"elongation_frame" json:"elongation_frame"`

	ConjunctionBefore string `yaml:"conjunction_before" json:"conjunction_before,omitempty"`

	All []Condition `yaml:"all" json:"all,omitempty"`
	Any []Condition `yaml:"any" json:"any,omitempty"`

	Disabled bool `yaml:"disabled" json:"disabled,omitempty"`
}

func (c *Criterion) normalize() error {
	if c.ID == "" {
		return errors.New("criterion without id")
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Kind == "" {
		c.Kind = KindThreshold
	}
	if c.AltitudeFrame == "" {
		c.AltitudeFrame = Topocentric
	}
	if c.ElongationFrame == "" {
		c.ElongationFrame = Topocentric
	}
	if c.Limb == "" {
		c.Limb = LimbCenter
	}

	switch c.Kind {
	case KindThreshold, KindOdeh, KindYallop:
	default:
		return fmt.Errorf("criterion %s: unknown kind %q", c.ID, c.Kind)
	}
	for _, f := range []Frame{c.AltitudeFrame, c.ElongationFrame} {
		if f != Topocentric && f != Geocentric {
			return fmt.Errorf("criterion %s: unknown frame %q", c.ID, f)
		}
	}
	switch c.Limb {
	case LimbCenter, LimbUpper, LimbLower:
	default:
		return fmt.Errorf("criterion %s: unknown limb %q", c.ID, c.Limb)
	}
	switch c.ConjunctionBefore {
	case "", BeforeSunset, BeforeMidnightUT:
	default:
		return fmt.Errorf("criterion %s: unknown conjunction rule %q", c.ID, c.ConjunctionBefore)
	}
	for _, cond := range append(append([]Condition{}, c.All...), c.Any...) {
		if !knownFields[cond.Field] {
			return fmt.Errorf("criterion %s: unknown field %q", c.ID, cond.Field)
		}
		if cond.Op != ">=" && cond.Op != ">" {
			return fmt.Errorf("criterion %s: unsupported operator %q", c.ID, cond.Op)
		}
	}
	return nil
}

// ParseTable decodes a YAML criteria table.
func ParseTable(data []byte) ([]Criterion, error) {
	var table struct {
		Criteria []Criterion `yaml:"criteria"`
	}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing criteria table: %w", err)
	}
	return table.Criteria, nil
}

// Defaults returns a fresh copy of the built-in criteria.
func Defaults() ([]Criterion, error) {
	return ParseTable(defaultTable)
}

// Override adjusts a built-in criterion. Nil fields are left alone.
type Override struct {
	ID              string
	Name            string
	Enabled         *bool
	MinAltitude     *float64
	MinElongation   *float64
	MinAgeHours     *float64
	AltitudeFrame   Frame
	ElongationFrame Frame
}

// Apply returns a copy of c with the override applied.
func (o Override) Apply(c Criterion) Criterion {
	c.All = append([]Condition(nil), c.All...)
	c.Any = append([]Condition(nil), c.Any...)

	if o.Name != "" {
		c.Name = o.Name
	}
	if o.Enabled != nil {
		c.Disabled = !*o.Enabled
	}
	if o.AltitudeFrame != "" {
		c.AltitudeFrame = o.AltitudeFrame
	}
	if o.ElongationFrame != "" {
		c.ElongationFrame = o.ElongationFrame
	}
	setThreshold(&c, FieldAltitude, o.MinAltitude)
	setThreshold(&c, FieldElongation, o.MinElongation)
	setThreshold(&c, FieldAgeHours, o.MinAgeHours)
	return c
}

func setThreshold(c *Criterion, field string, v *float64) {
	if v == nil {
		return
	}
	found := false
	for _, conds := range [][]Condition{c.All, c.Any} {
		for i := range conds {
			if conds[i].Field == field {
				conds[i].Value = *v
				found = true
			}
		}
	}
	if !found {
		c.All = append(c.All, Condition{Field: field, Op: ">=", Value: *v})
	}
}

// Evaluator holds an ordered set of criteria. It is read-only after
// construction and safe for concurrent use.
type Evaluator struct {
	criteria []Criterion
	byID     map[string]int
}

// NewEvaluator validates the criteria and indexes them by ID
// (case-insensitive).
func NewEvaluator(list []Criterion) (*Evaluator, error) {
	e := &Evaluator{byID: make(map[string]int, len(list))}
	for _, c := range list {
		if err := c.normalize(); err != nil {
			return nil, err
		}
		key := strings.ToLower(c.ID)
		if _, dup := e.byID[key]; dup {
			return nil, fmt.Errorf("duplicate criterion %s", c.ID)
		}
		e.byID[key] = len(e.criteria)
		e.criteria = append(e.criteria, c)
	}
	return e, nil
}

// Default returns an evaluator over the built-in criteria with the given
// overrides applied.
func Default(overrides ...Override) (*Evaluator, error) {
	list, err := Defaults()
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		found := false
		for i := range list {
			if strings.EqualFold(list[i].ID, o.ID) {
				list[i] = o.Apply(list[i])
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("override for %s: %w", o.ID, ErrUnknownCriterion)
		}
	}
	return NewEvaluator(list)
}

// Lookup finds a criterion by ID, disabled ones included.
func (e *Evaluator) Lookup(id string) (Criterion, bool) {
	i, ok := e.byID[strings.ToLower(id)]
	if !ok {
		return Criterion{}, false
	}
	return e.criteria[i], true
}

// Criteria returns the enabled criteria in table order.
func (e *Evaluator) Criteria() []Criterion {
	out := make([]Criterion, 0, len(e.criteria))
	for _, c := range e.criteria {
		if !c.Disabled {
			out = append(out, c)
		}
	}
	return out
}
