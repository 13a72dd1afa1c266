// Package config loads the orchestrator's own operator-level defaults:
// settings the benchmark-definition XML does not carry per-invocation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds operator-level defaults for the driver.
type Config struct {
	ResourceGroups ResourceGroupsConfig `yaml:"resource_groups"`
	Cloud          CloudConfig          `yaml:"cloud"`
	ToolPlugins    ToolPluginsConfig    `yaml:"tool_plugins"`
	Limits         LimitsConfig         `yaml:"limits"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// ResourceGroupsConfig configures where the executor looks for the
// cgroup hierarchy it scopes runs into.
type ResourceGroupsConfig struct {
	// BaseMount is made absolute at load time but is not read by the
	// executor, which always detects cgroup mounts from /proc/mounts and
	// /proc/self/cgroup (see internal/runexec).
	BaseMount string `yaml:"base_mount"`
	// Subsystems restricts which cgroup subsystems are used; empty
	// means all of cpuacct, cpuset, memory.
	Subsystems []string `yaml:"subsystems"`
}

// CloudConfig configures remote dispatch.
type CloudConfig struct {
	ClientExecutable string `yaml:"client_executable"`
	TokenEnv         string `yaml:"token_env"` // env var name holding the cluster auth token
	Token            string `yaml:"-"`         // populated from TokenEnv at load time, never persisted
	Master           string `yaml:"master"`
	Priority         string `yaml:"priority"` // IDLE, LOW, HIGH, URGENT
}

// ToolPluginsConfig holds search_paths, which is loaded but not read:
// tools come only from the plug-ins compiled into internal/toolplugin's
// registry.
type ToolPluginsConfig struct {
	SearchPaths []string `yaml:"search_paths"`
}

// LimitsConfig holds operator-level limit defaults. DefaultThreads and
// OutputMaxSizeBytes are applied; DefaultMemoryMB and DefaultTimeLimitS
// are loaded but not applied, so a limit that neither the benchmark XML
// nor the CLI sets stays unset.
type LimitsConfig struct {
	DefaultThreads     int   `yaml:"default_threads"`
	DefaultMemoryMB    int64 `yaml:"default_memory_mb"`
	DefaultTimeLimitS  int64 `yaml:"default_time_limit_s"`
	OutputMaxSizeBytes int64 `yaml:"output_max_size_bytes"`
}

// LoggingConfig configures the driver's own structured logging.
type LoggingConfig struct {
	Path        string `yaml:"path"`
	Development bool   `yaml:"development"`
}

// Load reads path, takes the cluster token from the environment
// variable named by cloud.token_env (when set and non-empty), and
// fills in zero-valued defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	if cfg.Cloud.TokenEnv != "" {
		if tok := os.Getenv(cfg.Cloud.TokenEnv); tok != "" {
			cfg.Cloud.Token = tok
		}
	}

	if cfg.ResourceGroups.BaseMount != "" {
		absMount, err := filepath.Abs(cfg.ResourceGroups.BaseMount)
		if err != nil {
			return nil, fmt.Errorf("resolve resource group base mount: %w", err)
		}
		cfg.ResourceGroups.BaseMount = absMount
	}

	if len(cfg.ResourceGroups.Subsystems) == 0 {
		cfg.ResourceGroups.Subsystems = []string{"cpuacct", "cpuset", "memory"}
	}
	if cfg.Limits.DefaultThreads == 0 {
		cfg.Limits.DefaultThreads = 1
	}
	if cfg.Cloud.Priority == "" {
		cfg.Cloud.Priority = "LOW"
	}
	if cfg.Limits.OutputMaxSizeBytes == 0 {
		cfg.Limits.OutputMaxSizeBytes = 1024 * 1024 // 1 MiB tail-preserved truncation default
	}

	return &cfg, nil
}

// Default returns a Config with only the built-in defaults applied,
// used when the driver is invoked without a -config flag.
func Default() *Config {
	cfg := &Config{}
	cfg.ResourceGroups.Subsystems = []string{"cpuacct", "cpuset", "memory"}
	cfg.Limits.DefaultThreads = 1
	cfg.Cloud.Priority = "LOW"
	cfg.Limits.OutputMaxSizeBytes = 1024 * 1024
	return cfg
}
