// Package config loads runtime configuration for the lanecast binaries
// from a JSON or YAML file, with LC_ environment variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/roadmetrics/lanecast/internal/predict"
)

// Config is the root configuration.
type Config struct {
	Predictor predict.Config `json:"predictor"`

	// Model definition files, one per variant.
	GoModelPath    string `json:"go_model_path"`
	CutinModelPath string `json:"cutin_model_path"`

	// FeatureStorePath is the sqlite file for offline recordings.
	FeatureStorePath string `json:"feature_store_path"`

	LogLevel string `json:"log_level"`
}

// Default returns the configuration used when no file overrides are given.
func Default() *Config {
	return &Config{
		Predictor:        predict.DefaultConfig(),
		GoModelPath:      "models/cruise_go.json",
		CutinModelPath:   "models/cruise_cutin.json",
		FeatureStorePath: "cruise_features.db",
		LogLevel:         "info",
	}
}

// Load reads the file at path over the defaults, applies LC_ environment
// overrides (LC_PREDICTOR__LANE_POINT_COUNT and the like), and validates
// the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".json":
		parser = koanfjson.Parser()
	case ".yaml", ".yml":
		parser = koanfyaml.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := c.Predictor.Validate(); err != nil {
		return fmt.Errorf("predictor: %w", err)
	}
	if !c.Predictor.OfflineMode {
		if c.GoModelPath == "" || c.CutinModelPath == "" {
			return fmt.Errorf("online mode requires go_model_path and cutin_model_path")
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}
