package config

import (
	"time"

	"github.com/testloom/testloom/internal/generator"
	"github.com/testloom/testloom/internal/prompt"
)

// Config represents the complete testloom configuration.
// It can be loaded from .testloom/config.yml with environment variable overrides.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Chunking   ChunkingConfig   `yaml:"chunking" mapstructure:"chunking"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// CompletionConfig configures the completion-service backend.
type CompletionConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`               // Ollama-compatible endpoint
	Model          string `yaml:"model" mapstructure:"model"`                     // e.g., "deepseek-coder:6.7b"
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // bounded wait per completion call
}

// AnalysisConfig configures fact extraction and strategy selection.
type AnalysisConfig struct {
	Engine                  string `yaml:"engine" mapstructure:"engine"`                                       // "regex" or "treesitter"
	SingleShotMaxMethods    int    `yaml:"single_shot_max_methods" mapstructure:"single_shot_max_methods"`     // below this, single-shot
	SingleShotMaxLines      int    `yaml:"single_shot_max_lines" mapstructure:"single_shot_max_lines"`         // below this, single-shot
	FlowComplexityThreshold int    `yaml:"flow_complexity_threshold" mapstructure:"flow_complexity_threshold"` // at or above, flow-annotated prompts
}

// ChunkingConfig bounds the pieces sent per prompt.
type ChunkingConfig struct {
	MethodsPerChunk int `yaml:"methods_per_chunk" mapstructure:"methods_per_chunk"`
	MaxChunkChars   int `yaml:"max_chunk_chars" mapstructure:"max_chunk_chars"`
}

// CacheConfig bounds the in-memory result cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	Capacity int  `yaml:"capacity" mapstructure:"capacity"` // max cached results
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8711,
		},
		Completion: CompletionConfig{
			BaseURL:        "http://127.0.0.1:11434",
			Model:          "deepseek-coder:6.7b",
			TimeoutSeconds: 120,
		},
		Analysis: AnalysisConfig{
			Engine:                  "regex",
			SingleShotMaxMethods:    5,
			SingleShotMaxLines:      150,
			FlowComplexityThreshold: 20,
		},
		Chunking: ChunkingConfig{
			MethodsPerChunk: 4,
			MaxChunkChars:   3000,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 256,
		},
	}
}

// Timeout returns the completion timeout as a duration.
func (c CompletionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GeneratorConfig maps the loaded settings onto the pipeline's config.
func (c *Config) GeneratorConfig() generator.Config {
	return generator.Config{
		SingleShotMaxMethods:    c.Analysis.SingleShotMaxMethods,
		SingleShotMaxLines:      c.Analysis.SingleShotMaxLines,
		FlowComplexityThreshold: c.Analysis.FlowComplexityThreshold,
		MethodsPerChunk:         c.Chunking.MethodsPerChunk,
		MaxChunkChars:           c.Chunking.MaxChunkChars,
		Params:                  prompt.DefaultParams(),
	}
}
