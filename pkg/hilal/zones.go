package hilal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/criteria"
	"github.com/chrissnell/hilal/pkg/ephemeris"
	"golang.org/x/sync/errgroup"
)

// VisibilityZone is one cell of the zone map. Cells span
// [LongitudeStart, LongitudeEnd) and are evaluated at their centre
// longitude on the row latitude.
type VisibilityZone struct {
	Latitude        float64  `json:"latitude"`
	LongitudeStart  float64  `json:"longitude_start"`
	LongitudeEnd    float64  `json:"longitude_end"`
	Step            float64  `json:"step"`
	IsVisible       bool     `json:"is_visible"`
	Determined      bool     `json:"determined"`
	QValue          *float64 `json:"q_value,omitempty"`
	VisibilityLevel int      `json:"visibility_level"`
	Criteria        string   `json:"criteria"`
}

// ZoneStep clamps a requested grid step to the configured bounds.
func (e *Engine) ZoneStep(step float64) (float64, error) {
	if math.IsNaN(step) || step <= 0 {
		return 0, &astro.InvalidInputError{Field: "step", Value: step, Reason: "must be positive"}
	}
	z := e.cfg.Zones
	return math.Min(math.Max(step, z.MinStep), z.MaxStep), nil
}

// CalculateVisibilityZones scans every longitude for each latitude row in
// the configured bounds. Each cell uses its own local date and sunset with
// timezone lon/15 at sea level. Cells where the Sun does not set are
// omitted. The result is ordered by latitude, then longitude.
func (e *Engine) CalculateVisibilityZones(ctx context.Context, d astro.Date, criterionID string, step float64) ([]VisibilityZone, error) {
	step, err := e.ZoneStep(step)
	if err != nil {
		return nil, err
	}
	var lats []float64
	for lat := e.cfg.Zones.MinLatitude; lat <= e.cfg.Zones.MaxLatitude+1e-9; lat += step {
		lats = append(lats, lat)
	}
	return e.scan(ctx, d, criterionID, step, lats)
}

// CalculateVisibilityBand scans a single latitude row.
func (e *Engine) CalculateVisibilityBand(ctx context.Context, d astro.Date, criterionID string, latitude, step float64) ([]VisibilityZone, error) {
	step, err := e.ZoneStep(step)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return nil, &astro.InvalidInputError{Field: "latitude", Value: latitude, Reason: "must be within [-90, 90]"}
	}
	return e.scan(ctx, d, criterionID, step, []float64{latitude})
}

func (e *Engine) scan(ctx context.Context, d astro.Date, criterionID string, step float64, lats []float64) ([]VisibilityZone, error) {
	c, ok := e.criteria.Lookup(criterionID)
	if !ok {
		return nil, fmt.Errorf("%q: %w", criterionID, criteria.ErrUnknownCriterion)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	lunations, err := e.aggregator.Lunations(d)
	if err != nil {
		return nil, fmt.Errorf("lunations around %s: %w", d, err)
	}

	start := time.Now()
	e.logger.Infow("scanning visibility zones", "date", d.String(), "criteria", c.ID,
		"step", step, "rows", len(lats), "workers", e.cfg.Zones.Workers)

	rows := make([][]VisibilityZone, len(lats))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Zones.Workers)
	for i, lat := range lats {
		g.Go(func() error {
			row, err := e.row(ctx, d, c, lat, step, lunations)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var zones []VisibilityZone
	visible := 0
	for _, row := range rows {
		for _, z := range row {
			if z.IsVisible {
				visible++
			}
		}
		zones = append(zones, row...)
	}
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].Latitude != zones[j].Latitude {
			return zones[i].Latitude < zones[j].Latitude
		}
		return zones[i].LongitudeStart < zones[j].LongitudeStart
	})

	e.logger.Infow("visibility zone scan complete", "date", d.String(), "criteria", c.ID,
		"cells", len(zones), "visible", visible, "elapsed", time.Since(start).String())
	return zones, nil
}

func (e *Engine) row(ctx context.Context, d astro.Date, c criteria.Criterion, lat, step float64, lunations []astro.JulianInstant) ([]VisibilityZone, error) {
	opts := ephemeris.Options{Conjunctions: lunations, SkipTopocentricConjunction: true}
	var row []VisibilityZone
	for lon := -180.0; lon < 180-1e-9; lon += step {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := math.Min(lon+step, 180)
		centre := (lon + end) / 2
		loc := astro.Location{
			Latitude:  lat,
			Longitude: centre,
			Timezone:  centre / 15,
		}

		snap, err := e.aggregator.ComputeWith(loc, d, opts)
		if err != nil && !ephemeris.IsPartial(err) {
			if errors.Is(err, astro.ErrNoEvent) {
				continue
			}
			return nil, fmt.Errorf("cell %.2f,%.2f: %w", lat, centre, err)
		}

		// An undetermined result is kept as a not-visible cell.
		r, _ := criteria.Evaluate(snap, c)
		row = append(row, VisibilityZone{
			Latitude:        lat,
			LongitudeStart:  lon,
			LongitudeEnd:    end,
			Step:            step,
			IsVisible:       r.IsVisible,
			Determined:      r.Determined,
			QValue:          r.QValue,
			VisibilityLevel: r.Level,
			Criteria:        c.ID,
		})
	}
	return row, nil
}
