package deck

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RotationConfig defines rotation runner parameters loaded from
// configuration.
type RotationConfig struct {
	SweepIntervalMinutes int    `json:"sweep_interval_minutes" yaml:"sweep_interval_minutes"`
	Timezone             string `json:"timezone" yaml:"timezone"`
}

// SetDefaults applies sane defaults.
func (c *RotationConfig) SetDefaults() {
	if c.SweepIntervalMinutes <= 0 {
		c.SweepIntervalMinutes = 5
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

// Validate checks that the timezone resolves.
func (c RotationConfig) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

// Location resolves the configured home timezone.
func (c RotationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Interval returns the sweep interval as a duration.
func (c RotationConfig) Interval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// LoadRotationConfig loads RotationConfig from a JSON or YAML file.
func LoadRotationConfig(path string) (RotationConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return RotationConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg RotationConfig
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return RotationConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	cfg.SetDefaults()
	return cfg, err
}

// DecodeRotationConfig reads from r to decode a RotationConfig.
func DecodeRotationConfig(r io.Reader, format string) (RotationConfig, error) {
	var cfg RotationConfig
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, nil
}
