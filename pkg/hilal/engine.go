// Package hilal is the engine boundary: it wires the astronomy packages
// together and exposes the request/response operations callers use.
package hilal

import (
	"errors"
	"fmt"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/calendar"
	"github.com/chrissnell/hilal/pkg/config"
	"github.com/chrissnell/hilal/pkg/criteria"
	"github.com/chrissnell/hilal/pkg/ephemeris"
	"github.com/chrissnell/hilal/pkg/events"
	"github.com/chrissnell/hilal/pkg/prayer"
	"github.com/chrissnell/hilal/pkg/topo"
	"go.uber.org/zap"
)

// Engine is stateless between requests and safe for concurrent use.
type Engine struct {
	cfg          *config.ConfigData
	logger       *zap.SugaredLogger
	finder       *events.Finder
	aggregator   *ephemeris.Aggregator
	criteria     *criteria.Evaluator
	prayer       *prayer.Calculator
	prayerParams prayer.Params
}

// CalculationResult is the full answer for one location and date.
type CalculationResult struct {
	Location        astro.Location             `json:"location"`
	ObservationDate astro.Date                 `json:"observation_date"`
	HijriDate       calendar.HijriDate         `json:"hijri_date"`
	Ephemeris       *ephemeris.Snapshot        `json:"ephemeris"`
	CriteriaResults map[string]criteria.Result `json:"criteria_results"`
	Partial         bool                       `json:"partial"`
}

// New creates an engine. A nil cfg uses config.DefaultConfig and a nil
// logger discards output.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	finder := events.NewFinder(events.SolverConfig{
		ToleranceSeconds: cfg.Solver.ToleranceSeconds,
		MaxIterations:    cfg.Solver.MaxIterations,
		ScanStepMinutes:  cfg.Solver.ScanStepMinutes,
	})
	atm := topo.Atmosphere{
		PressureMbar: cfg.Atmosphere.PressureMbar,
		TemperatureC: cfg.Atmosphere.TemperatureC,
	}

	overrides := make([]criteria.Override, 0, len(cfg.Criteria))
	for _, c := range cfg.Criteria {
		overrides = append(overrides, criteria.Override{
			ID:              c.ID,
			Name:            c.Name,
			Enabled:         c.Enabled,
			MinAltitude:     c.MinAltitude,
			MinElongation:   c.MinElongation,
			MinAgeHours:     c.MinAgeHours,
			AltitudeFrame:   criteria.Frame(c.AltitudeFrame),
			ElongationFrame: criteria.Frame(c.ElongationFrame),
		})
	}
	evaluator, err := criteria.Default(overrides...)
	if err != nil {
		return nil, fmt.Errorf("criteria: %w", err)
	}

	params, err := prayerParams(cfg.Prayer)
	if err != nil {
		return nil, fmt.Errorf("prayer: %w", err)
	}

	return &Engine{
		cfg:          cfg,
		logger:       logger,
		finder:       finder,
		aggregator:   ephemeris.New(finder, atm),
		criteria:     evaluator,
		prayer:       prayer.NewCalculator(finder),
		prayerParams: params,
	}, nil
}

func prayerParams(p config.PrayerData) (prayer.Params, error) {
	m, err := prayer.LookupMethod(p.Method)
	if err != nil {
		return prayer.Params{}, err
	}
	if p.FajrAngle > 0 {
		m.FajrAngle = p.FajrAngle
	}
	if p.IshaAngle > 0 {
		m.IshaAngle = p.IshaAngle
		m.IshaInterval = 0
	}
	if p.IshaInterval > 0 {
		m.IshaInterval = p.IshaInterval
	}

	params := prayer.Params{
		Method:        m,
		AsrShadow:     p.AsrShadow,
		ImsakMinutes:  p.ImsakMinutes,
		DhuhaAltitude: p.DhuhaAltitude,
		Ihtiyat:       make(map[string]float64, len(p.Ihtiyat)),
	}
	if params.AsrShadow == 0 {
		params.AsrShadow = 1
	}
	for k, v := range p.Ihtiyat {
		params.Ihtiyat[k] = v
	}
	return params, nil
}

// DefaultLocation is the configured observer.
func (e *Engine) DefaultLocation() astro.Location {
	o := e.cfg.Observer
	return astro.Location{
		Name:      o.Name,
		Latitude:  o.Latitude,
		Longitude: o.Longitude,
		Elevation: o.Elevation,
		Timezone:  o.Timezone,
	}
}

// Criteria lists the enabled visibility criteria.
func (e *Engine) Criteria() []criteria.Criterion {
	return e.criteria.Criteria()
}

// CalculateHilalVisibility computes the sunset ephemeris for the local date
// and evaluates every enabled criterion against it. A partial snapshot is
// not an error: the result is flagged Partial and the snapshot's Failures
// name what is missing.
func (e *Engine) CalculateHilalVisibility(loc astro.Location, year, month, day int) (*CalculationResult, error) {
	d := astro.Date{Year: year, Month: month, Day: day}
	e.logger.Debugw("calculating hilal visibility", "location", loc.Name,
		"lat", loc.Latitude, "lon", loc.Longitude, "date", d.String())

	snap, err := e.snapshot(loc, d)
	if err != nil {
		return nil, err
	}

	return &CalculationResult{
		Location:        loc,
		ObservationDate: d,
		HijriDate:       snap.HijriDate,
		Ephemeris:       snap,
		CriteriaResults: e.criteria.EvaluateAll(snap),
		Partial:         snap.Partial(),
	}, nil
}

// CalculateHilalVisibilityHijri is CalculateHilalVisibility for a tabular
// Hijri date.
func (e *Engine) CalculateHilalVisibilityHijri(loc astro.Location, year, month, day int) (*CalculationResult, error) {
	g, err := calendar.HijriToGregorian(year, month, day)
	if err != nil {
		return nil, err
	}
	return e.CalculateHilalVisibility(loc, g.Year, g.Month, g.Day)
}

// GetDetailedHilalData returns the raw snapshot without criteria.
func (e *Engine) GetDetailedHilalData(loc astro.Location, year, month, day int) (*ephemeris.Snapshot, error) {
	return e.snapshot(loc, astro.Date{Year: year, Month: month, Day: day})
}

// EvaluateCriterion evaluates one criterion for a location and date.
func (e *Engine) EvaluateCriterion(loc astro.Location, d astro.Date, criterionID string) (criteria.Result, error) {
	if _, ok := e.criteria.Lookup(criterionID); !ok {
		return criteria.Result{}, fmt.Errorf("%q: %w", criterionID, criteria.ErrUnknownCriterion)
	}
	snap, err := e.snapshot(loc, d)
	if err != nil {
		return criteria.Result{}, err
	}
	return e.criteria.Evaluate(snap, criterionID)
}

func (e *Engine) snapshot(loc astro.Location, d astro.Date) (*ephemeris.Snapshot, error) {
	snap, err := e.aggregator.Compute(loc, d)
	switch {
	case err == nil:
		return snap, nil
	case ephemeris.IsPartial(err):
		e.logger.Warnw("partial ephemeris", "location", loc.Name, "date", d.String(), "error", err)
		return snap, nil
	default:
		return nil, err
	}
}

// GetPrayerTimes computes the day's prayer times with the configured
// method.
func (e *Engine) GetPrayerTimes(loc astro.Location, d astro.Date) (*prayer.Times, error) {
	e.logger.Debugw("calculating prayer times", "location", loc.Name, "date", d.String(), "method", e.prayerParams.Method.Name)
	t, err := e.prayer.Calculate(loc, d, e.prayerParams)
	if err != nil {
		return nil, err
	}
	if len(t.Missing) > 0 {
		e.logger.Warnw("prayer times unavailable", "location", loc.Name, "date", d.String(), "missing", t.MissingNames())
	}
	return t, nil
}

// Qibla returns the bearing to the Kaaba.
func (e *Engine) Qibla(loc astro.Location) (float64, error) {
	return prayer.Qibla(loc)
}

// GregorianToHijri converts with the tabular calendar.
func (e *Engine) GregorianToHijri(year, month, day int) (calendar.HijriDate, error) {
	return calendar.GregorianToHijri(year, month, day)
}

// HijriToGregorian converts with the tabular calendar.
func (e *Engine) HijriToGregorian(year, month, day int) (astro.Date, error) {
	return calendar.HijriToGregorian(year, month, day)
}

// IsInputError reports whether err stems from rejected input rather than
// from the computation.
func IsInputError(err error) bool {
	return errors.Is(err, astro.ErrInvalidInput) || errors.Is(err, criteria.ErrUnknownCriterion)
}
