package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "MEDRAGD_"

// defaultConfig is the lowest-priority configuration layer. Defaults live in
// the koanf layer rather than in post-unmarshal fixups so that an explicit
// zero in a higher layer (chunking.overlap: 0 is valid) is distinguishable
// from an unset key.
var defaultConfig = []byte(`
server:
  host: localhost
  port: 8080
  shutdown_timeout: 10s
logging:
  level: info
  format: json
chunking:
  size: 512
  overlap: 50
embeddings:
  model: intfloat/multilingual-e5-large
  cache_dir: ~/.cache/medragd/models
  load_timeout: 5m
translation:
  timeout: 10s
index:
  snapshot_path: ~/.local/share/medragd/index.snapshot
retrieval:
  top_k: 3
`)

// Load loads configuration from a YAML file, then overrides with environment
// variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (MEDRAGD_SERVER_PORT, MEDRAGD_CHUNKING_SIZE, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// When configPath is empty, ~/.config/medragd/config.yaml is used if it
// exists. Environment variables map to config keys by stripping the prefix,
// lowercasing, and splitting on the first underscore:
//
//	MEDRAGD_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
//	MEDRAGD_EMBEDDINGS_LOAD_TIMEOUT -> embeddings.load_timeout
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "medragd", "config.yaml")
	}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// MEDRAGD_SERVER_SHUTDOWN_TIMEOUT -> server.shutdown_timeout
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
