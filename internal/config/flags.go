package config

import (
	"flag"
	"os"
	"time"

	"github.com/bmaret/boursomate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-e string   base URL of the brokerage gateway
//	-i int      mfa poll interval in seconds
//	-d string   data directory
//	-incognito  hide real account names
//	-dev        developer mode
//
// os.Args is filtered through flagx.FilterArgs so flags owned by other
// components do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-i", "-d", "-incognito", "-dev"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "base URL of the brokerage gateway")
	pollInterval := fs.Int("i", int(cfg.MfaPollInterval.Seconds()), "mfa poll interval (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.BoolVar(&cfg.Incognito, "incognito", cfg.Incognito, "hide real account names")
	fs.BoolVar(&cfg.DevMode, "dev", cfg.DevMode, "developer mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.MfaPollInterval = time.Duration(*pollInterval) * time.Second
}
