package sim

import (
	"fmt"

	"github.com/milk9111/herbicide/controller"
	"github.com/milk9111/herbicide/model"
	"github.com/milk9111/herbicide/prefabs"
)

// ConfigFile is the prefab file LoadConfig reads.
const ConfigFile = "config.yaml"

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// Output is a file path; empty logs to stderr.
	Output string `yaml:"output"`
}

// Config holds the simulation settings. Zero fields take defaults.
type Config struct {
	Level           string    `yaml:"level"`
	TickRate        int       `yaml:"tick_rate"`
	PixelsPerTile   float64   `yaml:"pixels_per_tile"`
	Lives           int       `yaml:"lives"`
	Balance         int       `yaml:"balance"`
	Unlocked        []string  `yaml:"unlocked"`
	TargetingPolicy string    `yaml:"targeting_policy"`
	Log             LogConfig `yaml:"log"`
	Listen          string    `yaml:"listen"`
	Record          string    `yaml:"record"`
}

// DefaultConfig is used when no config file is available.
func DefaultConfig() Config {
	return Config{
		Level:         "meadow",
		TickRate:      60,
		PixelsPerTile: 48,
		Lives:         3,
		Balance:       20,
		Log:           LogConfig{Level: "info", Format: "console"},
	}
}

// LoadConfig reads config.yaml through the prefab loader, so a copy on disk
// overrides the embedded one.
func LoadConfig() (Config, error) {
	cfg, err := prefabs.LoadSpec[Config](ConfigFile)
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Level == "" {
		c.Level = def.Level
	}
	if c.TickRate == 0 {
		c.TickRate = def.TickRate
	}
	if c.PixelsPerTile == 0 {
		c.PixelsPerTile = def.PixelsPerTile
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("sim: tick_rate must be positive, got %d", c.TickRate)
	}
	if c.PixelsPerTile <= 0 {
		return fmt.Errorf("sim: pixels_per_tile must be positive, got %v", c.PixelsPerTile)
	}
	if c.Lives <= 0 {
		return fmt.Errorf("sim: lives must be positive, got %d", c.Lives)
	}
	if c.Balance < 0 {
		return fmt.Errorf("sim: balance must not be negative, got %d", c.Balance)
	}
	if _, err := controller.ParseTargetPolicy(c.TargetingPolicy); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("sim: unknown log format %q", c.Log.Format)
	}
	return nil
}

// DT is the fixed tick duration in seconds.
func (c Config) DT() float64 { return 1 / float64(c.TickRate) }

// UnlockedTypes converts the unlocked list to model types.
func (c Config) UnlockedTypes() []model.Type {
	out := make([]model.Type, 0, len(c.Unlocked))
	for _, u := range c.Unlocked {
		out = append(out, model.Type(u))
	}
	return out
}
