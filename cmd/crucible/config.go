package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Package-level validator instance for run config validation.
var validate = validator.New()

// RunConfig is the YAML document describing one evaluation run: the task
// endpoint, the dataset, the scorer list, and execution tuning.
type RunConfig struct {
	// Name labels the run in persistence and logs.
	Name string `yaml:"name"`

	// Task configures the HTTP endpoint under test.
	Task TaskConfig `yaml:"task"`

	// Data locates the JSONL case file.
	Data DataConfig `yaml:"data"`

	// Scorers lists the scorers to apply, in order.
	Scorers []ScorerConfig `yaml:"scorers"`

	// Concurrency bounds parallel case execution. Defaults to 8.
	Concurrency int `yaml:"concurrency" validate:"min=0"`

	// RateLimit optionally throttles task invocations.
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
}

// TaskConfig names the remote task endpoint.
type TaskConfig struct {
	URL    string `yaml:"url" validate:"required,url"`
	Method string `yaml:"method" validate:"omitempty,oneof=GET POST"`
}

// DataConfig locates the dataset.
type DataConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// RateLimitConfig throttles task invocations with a token bucket.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gt=0"`
	Burst int     `yaml:"burst" validate:"min=1"`
}

// ScorerConfig selects and parameterizes one scorer. Type discriminates
// which of the optional fields apply.
type ScorerConfig struct {
	// Type is one of exact, levenshtein, contains, regex, json,
	// json_schema, json_strict, sql, embedding.
	Type string `yaml:"type" validate:"required,oneof=exact levenshtein contains regex json json_schema json_strict sql embedding"`

	// MinSimilarity applies to levenshtein and embedding. Defaults to 0.8.
	MinSimilarity *float64 `yaml:"min_similarity"`

	// Substring and CaseSensitive apply to contains.
	Substring     string `yaml:"substring"`
	CaseSensitive bool   `yaml:"case_sensitive"`

	// Pattern applies to regex.
	Pattern string `yaml:"pattern"`

	// SchemaPath applies to json_schema.
	SchemaPath string `yaml:"schema_path"`

	// Dialect applies to sql.
	Dialect string `yaml:"dialect"`
}

// LoadRunConfig reads and validates a YAML run config. Decoding is strict
// so configuration typos fail the run instead of being silently ignored.
func LoadRunConfig(path string) (*RunConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var cfg RunConfig
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s (check for typos): %w", path, err)
	}

	if cfg.Concurrency == 0 {
		cfg.Concurrency = 8
	}
	if cfg.Name == "" {
		cfg.Name = "eval"
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
