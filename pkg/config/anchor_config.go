// Copyright 2025 Certen Protocol
//
// File Configuration Loader
//
// Optional YAML node configuration, layered on top of the env-var Config in
// config.go for deployments that prefer a checked-in file. Supports
// environment variable substitution in the same ${VAR_NAME} /
// ${VAR_NAME:-default} form.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// ==============================================================================
// Node File Configuration Structures
// ==============================================================================

// NodeFileConfig holds the settings a deployment typically checks into a
// YAML file rather than passing as environment variables: storage layout,
// the optional checkpoint database, and forest-wide operational knobs.
type NodeFileConfig struct {
	Environment string `yaml:"environment"`

	Storage    StorageSettings    `yaml:"storage"`
	Checkpoint CheckpointSettings `yaml:"checkpoint"`
	Metrics    MetricsSettings    `yaml:"metrics"`
}

// StorageSettings selects and configures the blob store backend.
type StorageSettings struct {
	Backend     string `yaml:"backend"` // "file", "leveldb", or "mem"
	DataDir     string `yaml:"data_dir"`
	LevelDBPath string `yaml:"leveldb_path"`
}

// CheckpointSettings configures the optional Postgres audit index.
type CheckpointSettings struct {
	Enabled         bool     `yaml:"enabled"`
	DatabaseURL     string   `yaml:"database_url"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	CheckpointEvery int      `yaml:"checkpoint_every"` // parsed only; forestd does not read it and records a checkpoint after every add while checkpointing is enabled
}

// MetricsSettings configures the Prometheus endpoint.
type MetricsSettings struct {
	Enabled     bool   `yaml:"enabled"`
	ListenAddr  string `yaml:"listen_addr"`
	MergeBucket string `yaml:"merge_duration_bucket_unit"` // "ms" or "s", for documentation/tooling only
}

// ==============================================================================
// Duration Type for YAML Parsing
// ==============================================================================

// Duration wraps time.Duration for YAML unmarshaling from strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ==============================================================================
// Configuration Loading
// ==============================================================================

// LoadNodeFileConfig loads a node's file configuration from a YAML file,
// substituting ${VAR_NAME} / ${VAR_NAME:-default} environment references
// before parsing.
func LoadNodeFileConfig(path string) (*NodeFileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var cfg NodeFileConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *NodeFileConfig) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "./data"
	}
	if c.Storage.LevelDBPath == "" {
		c.Storage.LevelDBPath = "./data/forestlog.db"
	}
	if c.Checkpoint.MaxOpenConns == 0 {
		c.Checkpoint.MaxOpenConns = 25
	}
	if c.Checkpoint.MaxIdleConns == 0 {
		c.Checkpoint.MaxIdleConns = 5
	}
	if c.Checkpoint.ConnMaxIdleTime == 0 {
		c.Checkpoint.ConnMaxIdleTime = Duration(5 * time.Minute)
	}
	if c.Checkpoint.ConnMaxLifetime == 0 {
		c.Checkpoint.ConnMaxLifetime = Duration(time.Hour)
	}
	if c.Metrics.ListenAddr == "" {
		c.Metrics.ListenAddr = "0.0.0.0:9090"
	}
}

// ==============================================================================
// Environment Variable Substitution
// ==============================================================================

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}

		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// ==============================================================================
// Validation
// ==============================================================================

// Validate checks the file configuration's internal consistency.
func (c *NodeFileConfig) Validate() error {
	switch c.Storage.Backend {
	case "file", "leveldb", "mem":
	default:
		return fmt.Errorf("storage.backend %q must be one of file, leveldb, mem", c.Storage.Backend)
	}
	if c.Checkpoint.Enabled && c.Checkpoint.DatabaseURL == "" {
		return fmt.Errorf("checkpoint.database_url is required when checkpoint.enabled is true")
	}
	return nil
}
