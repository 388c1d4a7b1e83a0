package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every variable the EnvProvider reads.
const EnvPrefix = "HILAL_"

// EnvProvider implements ConfigProvider over HILAL_* environment
// variables, optionally seeded from a .env file. Variables already set in
// the environment win over the file.
type EnvProvider struct {
	envFile string
}

// NewEnvProvider creates an environment provider. An empty envFile loads
// ./.env when present.
func NewEnvProvider(envFile string) *EnvProvider {
	return &EnvProvider{envFile: envFile}
}

func (e *EnvProvider) LoadConfig() (*ConfigData, error) {
	if e.envFile != "" {
		if err := godotenv.Load(e.envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", e.envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	c := DefaultConfig()
	if v, ok := lookup("OBSERVER_NAME"); ok {
		c.Observer.Name = v
	}
	if v, ok := lookup("PRAYER_METHOD"); ok {
		c.Prayer.Method = v
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"LATITUDE", &c.Observer.Latitude},
		{"LONGITUDE", &c.Observer.Longitude},
		{"ELEVATION", &c.Observer.Elevation},
		{"TIMEZONE", &c.Observer.Timezone},
		{"PRESSURE", &c.Atmosphere.PressureMbar},
		{"TEMPERATURE", &c.Atmosphere.TemperatureC},
		{"FAJR_ANGLE", &c.Prayer.FajrAngle},
		{"ISHA_ANGLE", &c.Prayer.IshaAngle},
		{"ASR_SHADOW", &c.Prayer.AsrShadow},
		{"IMSAK_MINUTES", &c.Prayer.ImsakMinutes},
		{"ZONE_MIN_STEP", &c.Zones.MinStep},
		{"SOLVER_TOLERANCE", &c.Solver.ToleranceSeconds},
		{"SOLVER_SCAN_STEP", &c.Solver.ScanStepMinutes},
	}
	for _, f := range floats {
		if err := parseFloat(f.key, f.dst); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ZONE_WORKERS", &c.Zones.Workers},
		{"SOLVER_MAX_ITERATIONS", &c.Solver.MaxIterations},
	}
	for _, i := range ints {
		if err := parseInt(i.key, i.dst); err != nil {
			return nil, err
		}
	}

	if v, ok := lookup("DISABLED_CRITERIA"); ok {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				off := false
				c.Criteria = append(c.Criteria, CriterionData{ID: id, Enabled: &off})
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return c, nil
}

func (e *EnvProvider) IsReadOnly() bool {
	return true
}

func (e *EnvProvider) Close() error {
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func parseFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = f
	return nil
}

func parseInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}
