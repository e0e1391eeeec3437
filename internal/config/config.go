// Package config provides configuration loading for medragd.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables, with hardcoded defaults underneath. See Load for the precedence
// rules and variable naming.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete medragd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Translation TranslationConfig `koanf:"translation"`
	Index       IndexConfig       `koanf:"index"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Watch       WatchConfig       `koanf:"watch"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// APIKey protects the API endpoints (X-API-Key header). Empty disables
	// authentication.
	APIKey Secret `koanf:"api_key"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`
}

// ChunkingConfig holds the process-wide chunking policy.
type ChunkingConfig struct {
	// Size is the chunk window length in characters.
	Size int `koanf:"size"`

	// Overlap is the number of trailing characters repeated at the start of
	// the next chunk. Must be smaller than Size.
	Overlap int `koanf:"overlap"`
}

// EmbeddingsConfig holds embedding model configuration.
type EmbeddingsConfig struct {
	Model    string `koanf:"model"`
	CacheDir string `koanf:"cache_dir"`

	// LoadTimeout bounds the first model load, which may fetch weights over
	// the network.
	LoadTimeout time.Duration `koanf:"load_timeout"`
}

// TranslationConfig holds the translation server endpoint.
type TranslationConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// IndexConfig holds vector index persistence configuration.
type IndexConfig struct {
	// SnapshotPath is where the index snapshot is written at shutdown and
	// read at startup. Empty disables persistence.
	SnapshotPath string `koanf:"snapshot_path"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	TopK int `koanf:"top_k"`
}

// WatchConfig holds the document drop-directory watcher configuration.
type WatchConfig struct {
	// Dir is a directory whose .txt files are ingested automatically.
	// Empty disables the watcher.
	Dir string `koanf:"dir"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top_k must be positive, got %d", c.Retrieval.TopK)
	}

	return nil
}
