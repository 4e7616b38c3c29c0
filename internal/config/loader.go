package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (TESTLOOM_*)
// 2. Config file (.testloom/config.yml or .testloom/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".testloom")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("TESTLOOM")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., TESTLOOM_COMPLETION_MODEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("server.host")
	v.BindEnv("server.port")

	v.BindEnv("completion.base_url")
	v.BindEnv("completion.model")
	v.BindEnv("completion.timeout_seconds")

	v.BindEnv("analysis.engine")
	v.BindEnv("analysis.single_shot_max_methods")
	v.BindEnv("analysis.single_shot_max_lines")
	v.BindEnv("analysis.flow_complexity_threshold")

	v.BindEnv("chunking.methods_per_chunk")
	v.BindEnv("chunking.max_chunk_chars")

	v.BindEnv("cache.enabled")
	v.BindEnv("cache.capacity")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - defaults + env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)

	v.SetDefault("completion.base_url", defaults.Completion.BaseURL)
	v.SetDefault("completion.model", defaults.Completion.Model)
	v.SetDefault("completion.timeout_seconds", defaults.Completion.TimeoutSeconds)

	v.SetDefault("analysis.engine", defaults.Analysis.Engine)
	v.SetDefault("analysis.single_shot_max_methods", defaults.Analysis.SingleShotMaxMethods)
	v.SetDefault("analysis.single_shot_max_lines", defaults.Analysis.SingleShotMaxLines)
	v.SetDefault("analysis.flow_complexity_threshold", defaults.Analysis.FlowComplexityThreshold)

	v.SetDefault("chunking.methods_per_chunk", defaults.Chunking.MethodsPerChunk)
	v.SetDefault("chunking.max_chunk_chars", defaults.Chunking.MaxChunkChars)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
}
