// Package config loads, defaults and validates narrator configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "narrator.json"

// Provider constants.
const (
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// Defaults.
const (
	DefaultModel       = "llama3:8b"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1024
	DefaultConcurrency = 2
	DefaultSource      = "Projects.pdf"
	DefaultOutput      = "project_knowledge.json"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultTimeout     = 120 * time.Second
	DefaultIndexPath   = "knowledge.db"
	DefaultChunkSize   = 1500
	DefaultOverlap     = 200
	DefaultTopK        = 3
	DefaultScenes      = 15
	DefaultStoryDir    = "data"
)

// Duration is a time.Duration that reads and writes JSON as "3s" strings.
// Plain numbers are accepted as nanoseconds.
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err //nolint:wrapcheck // json error is descriptive
	}
	switch val := v.(type) {
	case float64:
		d.Duration = time.Duration(val)
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// RetryConfig controls per-title retries in the coordinator.
type RetryConfig struct {
	MaxAttempts   int      `json:"max_attempts" validate:"gte=1,lte=20"`
	InitialDelay  Duration `json:"initial_delay"`
	MaxDelay      Duration `json:"max_delay"`
	BackoffFactor float64  `json:"backoff_factor" validate:"gte=1"`
	Jitter        bool     `json:"jitter"`
}

// CircuitBreakerConfig controls the provider circuit breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int      `json:"failure_threshold" validate:"gte=1"`
	SuccessThreshold int      `json:"success_threshold" validate:"gte=1"`
	Timeout          Duration `json:"timeout"`
}

// RateLimitConfig bounds provider throughput. Zero disables a limit.
type RateLimitConfig struct {
	TokensPerMinute int `json:"tokens_per_minute" validate:"gte=0"`
	MaxConcurrency  int `json:"max_concurrency" validate:"gte=0"`
}

// IndexConfig configures the knowledge index.
type IndexConfig struct {
	Path         string  `json:"path" validate:"required"`
	ChunkSize    int     `json:"chunk_size" validate:"gt=0"`
	ChunkOverlap int     `json:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	TopK         int     `json:"top_k" validate:"gte=1"`
	MaxRank      float64 `json:"max_rank"`
	Output       string  `json:"output"`
}

// StoryboardConfig configures storyboard generation.
type StoryboardConfig struct {
	Scenes    int    `json:"scenes" validate:"gte=1,lte=100"`
	OutputDir string `json:"output_dir" validate:"required"`
	MaxTokens int    `json:"max_tokens" validate:"gt=0"`
}

// MetricsConfig controls metrics collection.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Textfile string `json:"textfile"`
}

// Config is the full narrator configuration.
type Config struct {
	Model       string  `json:"model" validate:"required"`
	Temperature float32 `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"gt=0"`
	Concurrency int     `json:"concurrency" validate:"gte=1,lte=64"`
	Source      string  `json:"source"`
	Output      string  `json:"output" validate:"required"`
	OllamaHost  string  `json:"ollama_host,omitempty" validate:"omitempty,url"`

	Timeout        Duration             `json:"timeout"`
	Retry          RetryConfig          `json:"retry"`
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
	RateLimit      RateLimitConfig      `json:"rate_limit"`
	Index          IndexConfig          `json:"index"`
	Storyboard     StoryboardConfig     `json:"storyboard"`
	Metrics        MetricsConfig        `json:"metrics"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Timeout.Duration == 0 {
		c.Timeout.Duration = DefaultTimeout
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialDelay.Duration == 0 {
		c.Retry.InitialDelay.Duration = 3 * time.Second
	}
	if c.Retry.MaxDelay.Duration == 0 {
		c.Retry.MaxDelay.Duration = c.Retry.InitialDelay.Duration
	}
	if c.Retry.BackoffFactor == 0 {
		c.Retry.BackoffFactor = 1.0
	}

	if c.CircuitBreaker.FailureThreshold == 0 {
		c.CircuitBreaker.FailureThreshold = 5
	}
	if c.CircuitBreaker.SuccessThreshold == 0 {
		c.CircuitBreaker.SuccessThreshold = 1
	}
	if c.CircuitBreaker.Timeout.Duration == 0 {
		c.CircuitBreaker.Timeout.Duration = 30 * time.Second
	}

	if c.RateLimit.MaxConcurrency == 0 && c.Concurrency > 0 {
		c.RateLimit.MaxConcurrency = c.Concurrency
	}

	if c.Index.Path == "" {
		c.Index.Path = DefaultIndexPath
	}
	if c.Index.ChunkSize == 0 {
		c.Index.ChunkSize = DefaultChunkSize
	}
	if c.Index.ChunkOverlap == 0 {
		c.Index.ChunkOverlap = DefaultOverlap
	}
	if c.Index.TopK == 0 {
		c.Index.TopK = DefaultTopK
	}
	if c.Index.Output == "" {
		c.Index.Output = "rag_output.txt"
	}

	if c.Storyboard.Scenes == 0 {
		c.Storyboard.Scenes = DefaultScenes
	}
	if c.Storyboard.OutputDir == "" {
		c.Storyboard.OutputDir = DefaultStoryDir
	}
	if c.Storyboard.MaxTokens == 0 {
		c.Storyboard.MaxTokens = 4096
	}
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Fields, "; ")
}

// Validate checks struct constraints and that the model maps to a provider.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return &ValidationError{Fields: fields}
	}
	if _, err := ModelProvider(c.Model); err != nil {
		return &ValidationError{Fields: []string{err.Error()}}
	}
	return nil
}

// explicitZeros captures keys whose zero value is meaningful, so defaults
// do not replace them.
type explicitZeros struct {
	Temperature *float32  `json:"temperature"`
	Timeout     *Duration `json:"timeout"`
	Retry       struct {
		InitialDelay *Duration `json:"initial_delay"`
		MaxDelay     *Duration `json:"max_delay"`
	} `json:"retry"`
	Index struct {
		ChunkOverlap *int `json:"chunk_overlap"`
	} `json:"index"`
}

func (e *explicitZeros) restore(c *Config) {
	if e.Temperature != nil {
		c.Temperature = *e.Temperature
	}
	if e.Timeout != nil {
		c.Timeout = *e.Timeout
	}
	if e.Retry.InitialDelay != nil {
		c.Retry.InitialDelay = *e.Retry.InitialDelay
	}
	if e.Retry.MaxDelay != nil {
		c.Retry.MaxDelay = *e.Retry.MaxDelay
	}
	if e.Index.ChunkOverlap != nil {
		c.Index.ChunkOverlap = *e.Index.ChunkOverlap
	}
}

// Load reads path, applies defaults and validates. A missing file yields
// the defaults when allowMissing is set. Defaults fill absent keys only:
// an explicit zero temperature, timeout, retry delay or chunk overlap is kept.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := &Config{}
	var explicit explicitZeros
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &explicit); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && allowMissing:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	explicit.restore(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil { //nolint:gosec // config is not secret
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
