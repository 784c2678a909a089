// Package config holds the runtime settings of the boursomate CLI and the
// defaults -> JSON file -> command-line flags overlay used to load them.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the boursomate CLI.
//
// Fields:
//   - Endpoint: base URL of the brokerage gateway.
//   - MfaPollInterval: how often an out-of-band MFA challenge is polled.
//   - QuoteLengthDays: how many days of price history to fetch per symbol.
//   - DataDir: directory of the local database (jobs, credentials, orders).
//   - Incognito: replace real account names with placeholders.
//   - DevMode: verbose logging and relaxed credential persistence prompts.
type Config struct {
	Endpoint        string
	MfaPollInterval time.Duration
	QuoteLengthDays int
	DataDir         string
	Incognito       bool
	DevMode         bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Endpoint = "https://gateway.boursomate.local"
	c.MfaPollInterval = 5 * time.Second
	c.QuoteLengthDays = 30
	c.DataDir = defaultDataDir()
	c.Incognito = false
	c.DevMode = false
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "boursomate")
	}
	return "."
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
