package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
}

func TestYAMLProvider(t *testing.T) {
	path := writeFile(t, "hilal.yaml", `
observer:
  name: Sukabumi
  latitude: -7.0739
  longitude: 106.5314
  elevation: 10
  timezone: 7
atmosphere:
  pressure_mbar: 1000
criteria:
  - id: MABIMS
    min_altitude: 4
  - id: Turkey
    enabled: false
prayer:
  method: MWL
  asr_shadow: 2
`)
	p := NewYAMLProvider(path)
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Observer.Name != "Sukabumi" || cfg.Observer.Latitude != -7.0739 {
		t.Errorf("Observer = %+v", cfg.Observer)
	}
	if cfg.Atmosphere.PressureMbar != 1000 {
		t.Errorf("pressure = %v", cfg.Atmosphere.PressureMbar)
	}
	if cfg.Atmosphere.TemperatureC != 10 {
		t.Errorf("temperature default lost: %v", cfg.Atmosphere.TemperatureC)
	}
	if len(cfg.Criteria) != 2 || *cfg.Criteria[0].MinAltitude != 4 || *cfg.Criteria[1].Enabled {
		t.Errorf("Criteria = %+v", cfg.Criteria)
	}
	if cfg.Prayer.Method != "MWL" || cfg.Prayer.AsrShadow != 2 || cfg.Prayer.ImsakMinutes != 10 {
		t.Errorf("Prayer = %+v", cfg.Prayer)
	}
	if cfg.Solver.MaxIterations != 60 {
		t.Errorf("solver default lost: %+v", cfg.Solver)
	}
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderWithoutFile(t *testing.T) {
	cfg, err := NewYAMLProvider("").LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Observer.Name != "Jakarta" || cfg.Prayer.Method != "Kemenag" {
		t.Errorf("got %+v, want the defaults", cfg)
	}
}

func TestYAMLProviderErrors(t *testing.T) {
	if _, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig(); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := NewYAMLProvider(writeFile(t, "bad.yaml", "observer: [")).LoadConfig(); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := NewYAMLProvider(writeFile(t, "neg.yaml", "atmosphere:\n  pressure_mbar: -5\n")).LoadConfig(); err == nil {
		t.Error("expected a validation error")
	}
}

func TestEnvProvider(t *testing.T) {
	envFile := writeFile(t, ".env", "HILAL_LATITUDE=21.4225\nHILAL_LONGITUDE=39.8262\nHILAL_TIMEZONE=3\n")
	t.Cleanup(func() {
		os.Unsetenv("HILAL_LATITUDE")
		os.Unsetenv("HILAL_LONGITUDE")
	})
	t.Setenv("HILAL_OBSERVER_NAME", "Makkah")
	t.Setenv("HILAL_TIMEZONE", "3.0")
	t.Setenv("HILAL_ZONE_WORKERS", "2")
	t.Setenv("HILAL_DISABLED_CRITERIA", "Odeh, Yallop")
	t.Setenv("HILAL_PRAYER_METHOD", "UmmAlQura")

	cfg, err := NewEnvProvider(envFile).LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Observer.Name != "Makkah" || cfg.Observer.Latitude != 21.4225 || cfg.Observer.Timezone != 3 {
		t.Errorf("Observer = %+v", cfg.Observer)
	}
	if cfg.Zones.Workers != 2 {
		t.Errorf("Workers = %d", cfg.Zones.Workers)
	}
	if cfg.Prayer.Method != "UmmAlQura" {
		t.Errorf("Method = %s", cfg.Prayer.Method)
	}
	if len(cfg.Criteria) != 2 || cfg.Criteria[1].ID != "Yallop" || *cfg.Criteria[1].Enabled {
		t.Errorf("Criteria = %+v", cfg.Criteria)
	}
}

func TestEnvProviderErrors(t *testing.T) {
	t.Setenv("HILAL_LATITUDE", "north")
	if _, err := NewEnvProvider(writeFile(t, ".env", "")).LoadConfig(); err == nil {
		t.Error("expected a parse error for a non-numeric latitude")
	}

	t.Setenv("HILAL_LATITUDE", "")
	t.Setenv("HILAL_ZONE_WORKERS", "0")
	if _, err := NewEnvProvider(writeFile(t, ".env", "")).LoadConfig(); err == nil {
		t.Error("expected a validation error for zero workers")
	}

	if _, err := NewEnvProvider(filepath.Join(t.TempDir(), "nope.env")).LoadConfig(); err == nil {
		t.Error("expected an error for a missing env file")
	}
}
