package config

import (
	"fmt"
	"runtime"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, defaults filled in
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete engine configuration
type ConfigData struct {
	Observer   ObserverData    `json:"observer" yaml:"observer"`
	Atmosphere AtmosphereData  `json:"atmosphere" yaml:"atmosphere"`
	Criteria   []CriterionData `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Prayer     PrayerData      `json:"prayer" yaml:"prayer"`
	Zones      ZonesData       `json:"zones" yaml:"zones"`
	Solver     SolverData      `json:"solver" yaml:"solver"`
}

// ObserverData is the default observing site
type ObserverData struct {
	Name      string  `json:"name" yaml:"name"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Elevation float64 `json:"elevation" yaml:"elevation"`
	Timezone  float64 `json:"timezone" yaml:"timezone"`
}

// AtmosphereData scales the refraction model
type AtmosphereData struct {
	PressureMbar float64 `json:"pressure_mbar" yaml:"pressure_mbar"`
	TemperatureC float64 `json:"temperature_c" yaml:"temperature_c"`
}

// CriterionData overrides a built-in visibility criterion. Unset fields
// keep the built-in values.
type CriterionData struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled         *bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	MinAltitude     *float64 `json:"min_altitude,omitempty" yaml:"min_altitude,omitempty"`
	MinElongation   *float64 `json:"min_elongation,omitempty" yaml:"min_elongation,omitempty"`
	MinAgeHours     *float64 `json:"min_age_hours,omitempty" yaml:"min_age_hours,omitempty"`
	AltitudeFrame   string   `json:"altitude_frame,omitempty" yaml:"altitude_frame,omitempty"`
	ElongationFrame string   `json:"elongation_frame,omitempty" yaml:"elongation_frame,omitempty"`
}

// PrayerData holds prayer time settings. Zero angles fall back to the
// method's own.
type PrayerData struct {
	Method        string             `json:"method" yaml:"method"`
	FajrAngle     float64            `json:"fajr_angle,omitempty" yaml:"fajr_angle,omitempty"`
	IshaAngle     float64            `json:"isha_angle,omitempty" yaml:"isha_angle,omitempty"`
	IshaInterval  float64            `json:"isha_interval,omitempty" yaml:"isha_interval,omitempty"`
	AsrShadow     float64            `json:"asr_shadow" yaml:"asr_shadow"`
	ImsakMinutes  float64            `json:"imsak_minutes" yaml:"imsak_minutes"`
	DhuhaAltitude float64            `json:"dhuha_altitude" yaml:"dhuha_altitude"`
	Ihtiyat       map[string]float64 `json:"ihtiyat,omitempty" yaml:"ihtiyat,omitempty"`
}

// ZonesData bounds the visibility zone grid scan
type ZonesData struct {
	MinLatitude float64 `json:"min_latitude" yaml:"min_latitude"`
	MaxLatitude float64 `json:"max_latitude" yaml:"max_latitude"`
	MinStep     float64 `json:"min_step" yaml:"min_step"`
	MaxStep     float64 `json:"max_step" yaml:"max_step"`
	Workers     int     `json:"workers" yaml:"workers"`
}

// SolverData tunes the event root finder
type SolverData struct {
	ToleranceSeconds float64 `json:"tolerance_seconds" yaml:"tolerance_seconds"`
	MaxIterations    int     `json:"max_iterations" yaml:"max_iterations"`
	ScanStepMinutes  float64 `json:"scan_step_minutes" yaml:"scan_step_minutes"`
}

// DefaultConfig returns a configuration the engine can run with as is.
func DefaultConfig() *ConfigData {
	return &ConfigData{
		Observer: ObserverData{
			Name:      "Jakarta",
			Latitude:  -6.2,
			Longitude: 106.8167,
			Elevation: 8,
			Timezone:  7,
		},
		Atmosphere: AtmosphereData{PressureMbar: 1010, TemperatureC: 10},
		Prayer: PrayerData{
			Method:        "Kemenag",
			AsrShadow:     1,
			ImsakMinutes:  10,
			DhuhaAltitude: 4.5,
			Ihtiyat: map[string]float64{
				"fajr":    2,
				"dhuha":   2,
				"dhuhr":   2,
				"asr":     2,
				"maghrib": 2,
				"isha":    2,
			},
		},
		Zones: ZonesData{
			MinLatitude: -60,
			MaxLatitude: 60,
			MinStep:     0.5,
			MaxStep:     30,
			Workers:     runtime.NumCPU(),
		},
		Solver: SolverData{ToleranceSeconds: 1, MaxIterations: 60, ScanStepMinutes: 10},
	}
}

// Validate checks the numeric sanity of every section
func (c *ConfigData) Validate() error {
	switch {
	case c.Atmosphere.PressureMbar <= 0:
		return fmt.Errorf("atmosphere: pressure must be positive, got %v", c.Atmosphere.PressureMbar)
	case c.Atmosphere.TemperatureC <= -273.15:
		return fmt.Errorf("atmosphere: temperature below absolute zero: %v", c.Atmosphere.TemperatureC)
	case c.Zones.MinLatitude < -90 || c.Zones.MaxLatitude > 90 || c.Zones.MinLatitude >= c.Zones.MaxLatitude:
		return fmt.Errorf("zones: invalid latitude bounds [%v, %v]", c.Zones.MinLatitude, c.Zones.MaxLatitude)
	case c.Zones.MinStep <= 0 || c.Zones.MaxStep < c.Zones.MinStep:
		return fmt.Errorf("zones: invalid step bounds [%v, %v]", c.Zones.MinStep, c.Zones.MaxStep)
	case c.Zones.Workers < 1:
		return fmt.Errorf("zones: workers must be at least 1, got %d", c.Zones.Workers)
	case c.Solver.ToleranceSeconds <= 0 || c.Solver.MaxIterations < 1 || c.Solver.ScanStepMinutes <= 0:
		return fmt.Errorf("solver: tolerance, iterations and scan step must be positive")
	}
	for i, cr := range c.Criteria {
		if cr.ID == "" {
			return fmt.Errorf("criteria[%d]: missing id", i)
		}
	}
	return nil
}
