// Package config loads runtime settings for the parking server from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the server. Defaults match the values the
// slot layout and the occupancy threshold were calibrated against.
type Config struct {
	// ImagePath is the parking-lot image analyzed when a tool call omits a path.
	ImagePath string `env:"PARKSPOT_IMAGE" envDefault:"carParkImg.png"`

	// SlotsFile is where slot coordinates are persisted.
	SlotsFile string `env:"PARKSPOT_SLOTS_FILE" envDefault:"CarParkPos.json"`

	SlotWidth  int `env:"PARKSPOT_SLOT_WIDTH" envDefault:"107"`
	SlotHeight int `env:"PARKSPOT_SLOT_HEIGHT" envDefault:"48"`

	// Threshold is the number of foreground pixels at which a slot counts
	// as occupied.
	Threshold int `env:"PARKSPOT_THRESHOLD" envDefault:"900"`

	WatchInterval time.Duration `env:"PARKSPOT_WATCH_INTERVAL" envDefault:"1s"`

	// MaxHashDistance lets the watch loop skip frames whose perceptual hash
	// is within this Hamming distance of the last classified frame.
	// Negative disables the shortcut so every changed file is reclassified.
	MaxHashDistance int `env:"PARKSPOT_MAX_HASH_DISTANCE" envDefault:"-1"`

	FreeColor     string `env:"PARKSPOT_FREE_COLOR" envDefault:"#00FF00"`
	OccupiedColor string `env:"PARKSPOT_OCCUPIED_COLOR" envDefault:"#FF0000"`

	LogLevel string `env:"PARKSPOT_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.SlotWidth <= 0 || c.SlotHeight <= 0 {
		return fmt.Errorf("invalid slot size %dx%d: both dimensions must be positive", c.SlotWidth, c.SlotHeight)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("invalid threshold %d: must be positive", c.Threshold)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("invalid watch interval %s: must be positive", c.WatchInterval)
	}
	if c.MaxHashDistance > 64 {
		return fmt.Errorf("invalid max hash distance %d: hashes are 64 bits", c.MaxHashDistance)
	}
	if c.SlotsFile == "" {
		return fmt.Errorf("slots file path is empty")
	}
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("unknown log level %q (want info or debug)", c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return c.LogLevel == "debug"
}
