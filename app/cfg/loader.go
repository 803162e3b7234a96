package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Run configuration
	ConfigPath string `long:"config" short:"c" env:"DIGEST_CONFIG" description:"Path to the digest configuration YAML file" required:"true"`
	StateDir   string `long:"state-dir" short:"s" env:"DIGEST_STATE_DIR" default:"state" description:"Directory for state files"`
	OutputDir  string `long:"output-dir" short:"o" env:"DIGEST_OUTPUT_DIR" default:"digests" description:"Directory for output files"`
	DryRun     bool   `long:"dry-run" short:"n" description:"Fetch and summarize but don't write outputs"`
	Date       string `long:"date" short:"d" description:"Target date for digest (YYYY-MM-DD); fetches content from time_window before this date"`

	// HTTP client configuration
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"DigestBot/1.0" description:"User agent string for HTTP requests"`
	Timeout   int    `long:"timeout" env:"HTTP_TIMEOUT" default:"30" description:"HTTP client timeout in seconds"`

	// Application metadata
	Verbose bool `long:"verbose" short:"v" env:"DEBUG" description:"Enable verbose logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ConfigPath: raw.ConfigPath,
		StateDir:   raw.StateDir,
		OutputDir:  raw.OutputDir,
		DryRun:     raw.DryRun,
		Date:       raw.Date,
		UserAgent:  raw.UserAgent,
		Timeout:    raw.Timeout,
		Verbose:    raw.Verbose,
		Version:    GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
