package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"etfbot/internal/backtest"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "etfbot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
alpaca:
  key_id: file-key
  secret_key: file-secret
  paper: false
risk_level: moderate
backtest:
  start_date: "2021-01-04"
  end_date: "2024-01-02"
  initial_capital: 25000
  frequency: monthly
  data_dir: testdata/prices
output:
  path: reports
  chart: true
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RiskLevel != "moderate" {
		t.Errorf("risk_level = %q, want moderate", cfg.RiskLevel)
	}
	if cfg.PaperTrading() {
		t.Error("paper = false in file, but PaperTrading() = true")
	}
	if cfg.InitialCapital() != 25000 {
		t.Errorf("InitialCapital() = %v, want 25000", cfg.InitialCapital())
	}
	if cfg.OutputPath() != "reports" {
		t.Errorf("OutputPath() = %q, want reports", cfg.OutputPath())
	}

	start, end, frequency, err := cfg.ToBacktestRange()
	if err != nil {
		t.Fatalf("ToBacktestRange() error = %v", err)
	}
	if !start.Equal(time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
	if frequency != backtest.Monthly {
		t.Errorf("frequency = %v, want monthly", frequency)
	}
}

func TestLoadMissingFileIsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.PaperTrading() {
		t.Error("empty config should default to paper trading")
	}
	if cfg.InitialCapital() != 10000 {
		t.Errorf("default capital = %v, want 10000", cfg.InitialCapital())
	}
	if _, _, frequency, err := cfg.ToBacktestRange(); err != nil || frequency != backtest.Quarterly {
		t.Errorf("default frequency = %v (err %v), want quarterly", frequency, err)
	}
}

func TestCredentialsEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "alpaca:\n  key_id: file-key\n  secret_key: file-secret\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvKeyID, "env-key")
	t.Setenv(EnvSecretKey, "env-secret")
	keyID, secretKey, err := cfg.Credentials()
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if keyID != "env-key" || secretKey != "env-secret" {
		t.Errorf("credentials = %q/%q, want env values", keyID, secretKey)
	}
}

func TestCredentialsMissing(t *testing.T) {
	t.Setenv(EnvKeyID, "")
	t.Setenv(EnvSecretKey, "")
	cfg := &Config{}
	if _, _, err := cfg.Credentials(); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestToProfilesMergesCustomProfiles(t *testing.T) {
	path := writeConfig(t, `
profiles:
  all_weather:
    VTI: 0.30
    GLD: 0.15
    BND: 0.55
  moderate:
    VTI: 0.50
    BND: 0.50
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	profiles, err := cfg.ToProfiles()
	if err != nil {
		t.Fatalf("ToProfiles() error = %v", err)
	}
	if _, ok := profiles["all_weather"]; !ok {
		t.Error("custom profile all_weather missing")
	}
	if profiles["moderate"]["VTI"] != 0.50 {
		t.Errorf("moderate should be overridden by the file, got %v", profiles["moderate"])
	}
	if _, ok := profiles["aggressive"]; !ok {
		t.Error("built-in profiles should survive the merge")
	}
}

func TestToProfilesRejectsBadWeights(t *testing.T) {
	path := writeConfig(t, "profiles:\n  broken:\n    VTI: 0.5\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.ToProfiles(); err == nil {
		t.Fatal("expected validation error for weights summing to 0.5")
	}
}

func TestToBacktestRangeRejectsBadInput(t *testing.T) {
	cfg := &Config{Backtest: BacktestSection{StartDate: "01/02/2021"}}
	if _, _, _, err := cfg.ToBacktestRange(); err == nil {
		t.Error("expected error for malformed start_date")
	}

	cfg = &Config{Backtest: BacktestSection{Frequency: "fortnightly"}}
	if _, _, _, err := cfg.ToBacktestRange(); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
