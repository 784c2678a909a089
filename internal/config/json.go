package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bmaret/boursomate/internal/flagx"
	"github.com/bmaret/boursomate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals may
// be given as strings like "5s" or as integer nanoseconds.
type JsonConfig struct {
	Endpoint        string         `json:"endpoint"`
	MfaPollInterval timex.Duration `json:"mfa_poll_interval"`
	QuoteLengthDays int            `json:"quote_length_days"`
	DataDir         string         `json:"data_dir"`
	Incognito       bool           `json:"incognito"`
	DevMode         bool           `json:"dev_mode"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. No flag, no overlay. Read or unmarshal errors panic; the
// process has no useful way to continue with a half-read config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.MfaPollInterval.Duration > 0 {
		cfg.MfaPollInterval = time.Duration(jc.MfaPollInterval.Duration)
	}
	if jc.QuoteLengthDays > 0 {
		cfg.QuoteLengthDays = jc.QuoteLengthDays
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	cfg.Incognito = jc.Incognito
	cfg.DevMode = jc.DevMode
}
