// Package config loads the service configuration from a JSON or YAML
// file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/openaid/respond/core/deck"
	"github.com/openaid/respond/core/metrics"
	"github.com/openaid/respond/infra/mqtt"
)

type Config struct {
	MQTT     mqtt.Config         `json:"mqtt"`
	Metrics  metrics.Config      `json:"metrics"`
	Audit    AuditConfig         `json:"audit"`
	Rotation deck.RotationConfig `json:"rotation"`
	Sync     SyncConfig          `json:"sync"`
	API      APIConfig           `json:"api"`
}

// Load reads the file at path. Environment variables prefixed with R_
// override file values, with __ as the section separator
// (R_API__ADDR overrides api.addr).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("R_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "r_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Metrics.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Rotation.SetDefaults()
	cfg.Sync.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Rotation.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sync.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.API.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
