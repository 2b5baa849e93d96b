// Package config provides centralized configuration for quotepress.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all service configuration values.
type Config struct {
	// MatchPhrase is the target phrase to clip quoted sentences for. Required.
	MatchPhrase string

	// FeedURL is the syndication feed to watch. Required.
	FeedURL string

	// PollInterval is how often the feed is checked for new items.
	PollInterval time.Duration

	// PrintInterval is the base delay between print cycles; each cycle
	// jitters it by up to ±10%.
	PrintInterval time.Duration

	// FromTimeAgo is the recency window: only articles published strictly
	// after now−FromTimeAgo are eligible for printing.
	FromTimeAgo time.Duration

	// DryRun skips all printer device interaction. Polling, matching and
	// persistence still run; selected matches go to the console.
	DryRun bool

	// StorePath is the path to the article snapshot file.
	StorePath string

	// PrinterDevice is the path to the ESC/POS printer device.
	PrinterDevice string

	// SaveDelay is the settle time between a poll cycle finishing and the
	// store snapshot being written.
	SaveDelay time.Duration
}

// Load reads configuration from environment variables, applying defaults.
// It fails when a required value is missing.
func Load() (Config, error) {
	cfg := Config{
		MatchPhrase:   os.Getenv("MATCH_PHRASE"),
		FeedURL:       os.Getenv("FEED_URL"),
		PollInterval:  envDuration("POLL_INTERVAL", time.Minute),
		PrintInterval: envDuration("PRINT_INTERVAL", 15*time.Minute),
		FromTimeAgo:   envDuration("FROM_TIME_AGO", 24*time.Hour),
		DryRun:        envBool("DRY_RUN", false),
		StorePath:     envOr("STORE_PATH", "articles.json"),
		PrinterDevice: envOr("PRINTER_DEVICE", "/dev/usb/lp0"),
		SaveDelay:     envDuration("SAVE_DELAY", 2*time.Second),
	}
	if cfg.MatchPhrase == "" {
		return Config{}, fmt.Errorf("MATCH_PHRASE is required")
	}
	if cfg.FeedURL == "" {
		return Config{}, fmt.Errorf("FEED_URL is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	default:
		return fallback
	}
}
