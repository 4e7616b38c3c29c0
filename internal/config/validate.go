package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEngine indicates an unsupported analysis engine
	ErrInvalidEngine = errors.New("invalid analysis engine")

	// ErrEmptyBaseURL indicates a missing completion endpoint
	ErrEmptyBaseURL = errors.New("empty completion base_url")

	// ErrEmptyModel indicates a missing completion model
	ErrEmptyModel = errors.New("empty completion model")

	// ErrInvalidTimeout indicates a non-positive completion timeout
	ErrInvalidTimeout = errors.New("invalid completion timeout")

	// ErrInvalidThreshold indicates a non-positive analysis threshold
	ErrInvalidThreshold = errors.New("invalid analysis threshold")

	// ErrInvalidChunking indicates invalid chunking bounds
	ErrInvalidChunking = errors.New("invalid chunking settings")

	// ErrInvalidCacheCapacity indicates a non-positive cache capacity
	ErrInvalidCacheCapacity = errors.New("invalid cache capacity")

	// ErrInvalidPort indicates a port outside the valid range
	ErrInvalidPort = errors.New("invalid server port")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidPort, cfg.Server.Port))
	}

	if strings.TrimSpace(cfg.Completion.BaseURL) == "" {
		errs = append(errs, ErrEmptyBaseURL)
	}
	if strings.TrimSpace(cfg.Completion.Model) == "" {
		errs = append(errs, ErrEmptyModel)
	}
	if cfg.Completion.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidTimeout, cfg.Completion.TimeoutSeconds))
	}

	engine := strings.ToLower(cfg.Analysis.Engine)
	if engine != "regex" && engine != "treesitter" {
		errs = append(errs, fmt.Errorf("%w: must be 'regex' or 'treesitter', got '%s'", ErrInvalidEngine, cfg.Analysis.Engine))
	}
	if cfg.Analysis.SingleShotMaxMethods <= 0 {
		errs = append(errs, fmt.Errorf("%w: single_shot_max_methods must be positive", ErrInvalidThreshold))
	}
	if cfg.Analysis.SingleShotMaxLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: single_shot_max_lines must be positive", ErrInvalidThreshold))
	}
	if cfg.Analysis.FlowComplexityThreshold <= 0 {
		errs = append(errs, fmt.Errorf("%w: flow_complexity_threshold must be positive", ErrInvalidThreshold))
	}

	if cfg.Chunking.MethodsPerChunk <= 0 {
		errs = append(errs, fmt.Errorf("%w: methods_per_chunk must be positive", ErrInvalidChunking))
	}
	if cfg.Chunking.MaxChunkChars < 0 {
		errs = append(errs, fmt.Errorf("%w: max_chunk_chars must not be negative", ErrInvalidChunking))
	}

	if cfg.Cache.Enabled && cfg.Cache.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidCacheCapacity, cfg.Cache.Capacity))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
