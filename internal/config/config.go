// Package config loads the YAML configuration file and the credential
// environment variables, and converts the raw sections into the typed
// inputs the engine packages consume.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"etfbot/internal/allocation"
	"etfbot/internal/backtest"
)

// Env var names for broker credentials. They override the alpaca section.
const (
	EnvKeyID     = "ALPACA_API_KEY_ID"
	EnvSecretKey = "ALPACA_API_SECRET_KEY"
)

// Config is the root of the configuration file.
type Config struct {
	Alpaca    AlpacaSection                 `yaml:"alpaca"`
	RiskLevel string                        `yaml:"risk_level"`
	Profiles  map[string]map[string]float64 `yaml:"profiles"`
	Backtest  BacktestSection               `yaml:"backtest"`
	Output    OutputSection                 `yaml:"output"`
}

// AlpacaSection configures the live broker connection.
type AlpacaSection struct {
	KeyID     string `yaml:"key_id"`
	SecretKey string `yaml:"secret_key"`
	Paper     *bool  `yaml:"paper"`
}

// BacktestSection configures simulation runs.
type BacktestSection struct {
	StartDate      string  `yaml:"start_date"`
	EndDate        string  `yaml:"end_date"`
	InitialCapital float64 `yaml:"initial_capital"`
	Frequency      string  `yaml:"frequency"`
	DataDir        string  `yaml:"data_dir"`
}

// OutputSection configures report export.
type OutputSection struct {
	Path      string `yaml:"path"`
	Snapshots bool   `yaml:"snapshots"`
	Chart     bool   `yaml:"chart"`
}

// Load reads and parses the config file. A missing path yields an empty
// config so the CLI can run on flags and env vars alone.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// Credentials returns the broker key pair, environment winning over file.
func (c *Config) Credentials() (keyID, secretKey string, err error) {
	keyID = c.Alpaca.KeyID
	if v := os.Getenv(EnvKeyID); v != "" {
		keyID = v
	}
	secretKey = c.Alpaca.SecretKey
	if v := os.Getenv(EnvSecretKey); v != "" {
		secretKey = v
	}
	if keyID == "" || secretKey == "" {
		return "", "", fmt.Errorf("missing broker credentials: set %s and %s or the alpaca section", EnvKeyID, EnvSecretKey)
	}
	return keyID, secretKey, nil
}

// PaperTrading reports whether to use the paper trading host. Defaults to
// true: live trading is opt-in.
func (c *Config) PaperTrading() bool {
	if c.Alpaca.Paper == nil {
		return true
	}
	return *c.Alpaca.Paper
}

// ToProfiles merges the built-in risk profiles with the config file's
// profiles section; file entries override built-ins of the same name.
func (c *Config) ToProfiles() (allocation.Profiles, error) {
	profiles := allocation.DefaultProfiles()
	for name, weights := range c.Profiles {
		target := make(map[string]float64, len(weights))
		for symbol, weight := range weights {
			target[symbol] = weight
		}
		profiles[name] = target
	}
	if err := profiles.Validate(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// ToBacktestRange parses the backtest date range and frequency. Empty dates
// default to the trailing three years.
func (c *Config) ToBacktestRange() (start, end time.Time, frequency backtest.Frequency, err error) {
	end = time.Now().UTC().Truncate(24 * time.Hour)
	if c.Backtest.EndDate != "" {
		end, err = time.Parse("2006-01-02", c.Backtest.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid end_date: %w", err)
		}
	}
	start = end.AddDate(-3, 0, 0)
	if c.Backtest.StartDate != "" {
		start, err = time.Parse("2006-01-02", c.Backtest.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid start_date: %w", err)
		}
	}
	freq := c.Backtest.Frequency
	if freq == "" {
		freq = string(backtest.Quarterly)
	}
	frequency, err = backtest.ParseFrequency(freq)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	return start, end, frequency, nil
}

// InitialCapital returns the configured starting capital, defaulting to
// $10,000.
func (c *Config) InitialCapital() float64 {
	if c.Backtest.InitialCapital > 0 {
		return c.Backtest.InitialCapital
	}
	return 10000
}

// OutputPath returns the report output directory.
func (c *Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	return "output"
}
