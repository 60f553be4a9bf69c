// Package config loads the service configuration from yaml or json files
// with FIRELINE_-prefixed environment overrides.
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

	"github.com/matiasvr/fireline/core/allocator"
	"github.com/matiasvr/fireline/core/metrics"
	"github.com/matiasvr/fireline/infra/fieldcomms"
)

type Config struct {
	Allocator  allocator.Config  `json:"allocator"`
	Fieldcomms fieldcomms.Config `json:"fieldcomms"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    LoggingConfig     `json:"logging"`
	API        APIConfig         `json:"api"`
}

// Load reads the file at path, applies FIRELINE_ environment overrides
// (double underscores become dots) and validates every section. Allocator
// values the file leaves unset keep their defaults, including
// prefer_exact_solver staying on.
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
	if err := k.Load(env.Provider("FIRELINE_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fireline_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Config{Allocator: allocator.DefaultConfig()}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.API.SetDefaults()
	if err := cfg.Allocator.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
