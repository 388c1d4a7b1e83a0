package main

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/hilal/pkg/astro"
	"github.com/chrissnell/hilal/pkg/hilal"
	"github.com/chrissnell/hilal/pkg/lunar"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type locationFlags struct {
	name      string
	latitude  float64
	longitude float64
	elevation float64
	timezone  float64
}

func (l *locationFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&l.name, "name", "", "Observer name")
	f.Float64Var(&l.latitude, "lat", 0, "Latitude in degrees, north positive")
	f.Float64Var(&l.longitude, "lon", 0, "Longitude in degrees, east positive")
	f.Float64Var(&l.elevation, "elevation", 0, "Elevation in meters")
	f.Float64Var(&l.timezone, "tz", 0, "UTC offset in hours")
}

// location starts from the configured observer and applies the flags
// given on the command line.
func (c *cli) location(cmd *cobra.Command, l *locationFlags) astro.Location {
	loc := c.engine.DefaultLocation()
	f := cmd.Flags()
	if f.Changed("lat") || f.Changed("lon") {
		loc.Name = ""
	}
	if f.Changed("name") {
		loc.Name = l.name
	}
	if f.Changed("lat") {
		loc.Latitude = l.latitude
	}
	if f.Changed("lon") {
		loc.Longitude = l.longitude
	}
	if f.Changed("elevation") {
		loc.Elevation = l.elevation
	}
	if f.Changed("tz") {
		loc.Timezone = l.timezone
	}
	return loc
}

// date parses YYYY-MM-DD, defaulting to today at the observer.
func date(args []string, tz float64) (astro.Date, error) {
	if len(args) == 0 {
		return astro.DateOf(time.Now().In(astro.FixedZone(tz))), nil
	}
	t, err := time.Parse(dateLayout, args[0])
	if err != nil {
		return astro.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", args[0], err)
	}
	return astro.DateOf(t), nil
}

// hijriDate parses Y-M-D without Gregorian validation.
func hijriDate(arg string) (y, m, d int, err error) {
	if _, err = fmt.Sscanf(arg, "%d-%d-%d", &y, &m, &d); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Hijri date %q, want YYYY-MM-DD: %w", arg, err)
	}
	return y, m, d, nil
}

func (c *cli) visibilityCmd() *cobra.Command {
	var (
		loc       locationFlags
		isHijri   bool
		criterion string
	)
	cmd := &cobra.Command{
		Use:   "visibility [date]",
		Short: "Evaluate every crescent visibility criterion at sunset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.location(cmd, &loc)
			if isHijri {
				if len(args) == 0 {
					return fmt.Errorf("--hijri needs a date")
				}
				y, m, d, err := hijriDate(args[0])
				if err != nil {
					return err
				}
				return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
					return e.CalculateHilalVisibilityHijri(l, y, m, d)
				})
			}

			d, err := date(args, l.Timezone)
			if err != nil {
				return err
			}
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				if criterion == "" {
					return e.CalculateHilalVisibility(l, d.Year, d.Month, d.Day)
				}
				r, err := e.EvaluateCriterion(l, d, criterion)
				// An undetermined result is still written.
				if err != nil && r.ID == "" {
					return nil, err
				}
				return r, nil
			})
		},
	}
	loc.register(cmd)
	cmd.Flags().BoolVar(&isHijri, "hijri", false, "Interpret the date as a tabular Hijri date")
	cmd.Flags().StringVar(&criterion, "criteria", "", "Evaluate a single criterion")
	return cmd
}

func (c *cli) ephemerisCmd() *cobra.Command {
	var loc locationFlags
	cmd := &cobra.Command{
		Use:   "ephemeris [date]",
		Short: "Show the raw Sun and Moon ephemeris at sunset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.location(cmd, &loc)
			d, err := date(args, l.Timezone)
			if err != nil {
				return err
			}
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				return e.GetDetailedHilalData(l, d.Year, d.Month, d.Day)
			})
		},
	}
	loc.register(cmd)
	return cmd
}

func (c *cli) zonesCmd() *cobra.Command {
	var (
		criterion string
		step      float64
		latitude  float64
	)
	cmd := &cobra.Command{
		Use:   "zones [date]",
		Short: "Scan the globe for crescent visibility under one criterion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := date(args, 0)
			if err != nil {
				return err
			}
			band := cmd.Flags().Changed("lat")
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				if band {
					return e.CalculateVisibilityBand(ctx, d, criterion, latitude, step)
				}
				return e.CalculateVisibilityZones(ctx, d, criterion, step)
			})
		},
	}
	cmd.Flags().StringVar(&criterion, "criteria", "MABIMS", "Criterion to evaluate")
	cmd.Flags().Float64Var(&step, "step", 2, "Grid step in degrees")
	cmd.Flags().Float64Var(&latitude, "lat", 0, "Scan only this latitude")
	return cmd
}

func (c *cli) prayerCmd() *cobra.Command {
	var loc locationFlags
	cmd := &cobra.Command{
		Use:   "prayer [date]",
		Short: "Compute the day's prayer times",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.location(cmd, &loc)
			d, err := date(args, l.Timezone)
			if err != nil {
				return err
			}
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				return e.GetPrayerTimes(l, d)
			})
		},
	}
	loc.register(cmd)
	return cmd
}

func (c *cli) qiblaCmd() *cobra.Command {
	var loc locationFlags
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Show the bearing to the Kaaba",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.location(cmd, &loc)
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				bearing, err := e.Qibla(l)
				if err != nil {
					return nil, err
				}
				return map[string]any{"location": l, "qibla": bearing}, nil
			})
		},
	}
	loc.register(cmd)
	return cmd
}

func (c *cli) hijriCmd() *cobra.Command {
	var (
		loc       locationFlags
		criterion string
	)
	cmd := &cobra.Command{
		Use:   "hijri [date]",
		Short: "Convert a Gregorian date to the Hijri calendar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := c.location(cmd, &loc)
			d, err := date(args, l.Timezone)
			if err != nil {
				return err
			}
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				if criterion == "" {
					h, err := e.GregorianToHijri(d.Year, d.Month, d.Day)
					if err != nil {
						return nil, err
					}
					return map[string]any{"gregorian": d, "hijri": h, "formatted": h.Format()}, nil
				}

				cal, err := e.ObservedCalendar(l, criterion)
				if err != nil {
					return nil, err
				}
				h, err := cal.GregorianToHijri(d.Year, d.Month, d.Day)
				if err != nil {
					return nil, err
				}
				return map[string]any{"gregorian": d, "hijri": h, "formatted": h.Format(), "criteria": cal.CriterionID, "location": l}, nil
			})
		},
	}
	loc.register(cmd)
	cmd.Flags().StringVar(&criterion, "observed", "", "Use sighting-based months under this criterion")
	return cmd
}

func (c *cli) gregorianCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gregorian <hijri-date>",
		Short: "Convert a tabular Hijri date to the Gregorian calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			y, m, d, err := hijriDate(args[0])
			if err != nil {
				return err
			}
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				g, err := e.HijriToGregorian(y, m, d)
				if err != nil {
					return nil, err
				}
				return map[string]any{"gregorian": g, "formatted": g.String()}, nil
			})
		},
	}
}

func (c *cli) monthCmd() *cobra.Command {
	var (
		loc       locationFlags
		criterion string
	)
	cmd := &cobra.Command{
		Use:   "month <hijri-year> <hijri-month>",
		Short: "Predict the first day of a Hijri month from crescent sightings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var y, m int
			if _, err := fmt.Sscanf(args[0]+" "+args[1], "%d %d", &y, &m); err != nil {
				return fmt.Errorf("invalid Hijri month %q %q: %w", args[0], args[1], err)
			}
			l := c.location(cmd, &loc)
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				cal, err := e.ObservedCalendar(l, criterion)
				if err != nil {
					return nil, err
				}
				return cal.MonthStart(y, m)
			})
		},
	}
	loc.register(cmd)
	cmd.Flags().StringVar(&criterion, "criteria", "MABIMS", "Criterion deciding the sighting")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the models against published reference values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var report hilal.ValidationReport
			err := c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				report = e.RunValidationTests()
				return report, nil
			})
			if err != nil {
				return err
			}
			if !report.Success {
				return fmt.Errorf("%s", report.Message)
			}
			return nil
		},
	}
}

func (c *cli) moonCmd() *cobra.Command {
	var (
		loc     locationFlags
		timeStr string
	)
	cmd := &cobra.Command{
		Use:   "moon",
		Short: "Show the Moon's phase and crescent orientation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := time.Now().UTC()
			if timeStr != "" {
				var err error
				t, err = time.Parse(time.RFC3339, timeStr)
				if err != nil {
					return fmt.Errorf("invalid time %q: %w", timeStr, err)
				}
			}
			l := c.location(cmd, &loc)
			return c.run(func(ctx context.Context, e *hilal.Engine) (any, error) {
				return map[string]any{
					"time":     t.UTC().Format(time.RFC3339),
					"location": l,
					"phase":    lunar.Calculate(t),
					"crescent": lunar.CalculateCrescentAngle(t, l.Latitude, l.Longitude),
				}, nil
			})
		},
	}
	loc.register(cmd)
	cmd.Flags().StringVar(&timeStr, "time", "", "UTC time (RFC3339, e.g. 2024-01-15T12:00:00Z), default now")
	return cmd
}
