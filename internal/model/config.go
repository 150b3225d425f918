package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Detect   DetectConfig   `yaml:"detect" mapstructure:"detect"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls document fetching and link resolution
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
}

// DetectConfig controls the fragment detector
type DetectConfig struct {
	ResolveLinks     bool          `yaml:"resolve_links" mapstructure:"resolve_links"`           // Fetch same-origin legal link targets
	RespectRobots    bool          `yaml:"respect_robots" mapstructure:"respect_robots"`         // Honor robots.txt when resolving links
	ResolveRatePerS  float64       `yaml:"resolve_rate_per_s" mapstructure:"resolve_rate_per_s"` // Per-host resolution rate limit
	ResolveBurst     int           `yaml:"resolve_burst" mapstructure:"resolve_burst"`
	ObserverDebounce time.Duration `yaml:"observer_debounce" mapstructure:"observer_debounce"` // Mutation burst collapse window
}

// AnalysisConfig controls the orchestrator
type AnalysisConfig struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // Per-caller wait for a classification
	Workers int           `yaml:"workers" mapstructure:"workers"` // Fan-out bound for AnalyzeIfNew
}

// CacheConfig controls the fingerprint result cache
type CacheConfig struct {
	Enabled           bool    `yaml:"enabled" mapstructure:"enabled"`
	Dir               string  `yaml:"dir" mapstructure:"dir"` // Disk layer location; empty disables the disk layer
	Capacity          int     `yaml:"capacity" mapstructure:"capacity"`
	ReducedCapacity   int     `yaml:"reduced_capacity" mapstructure:"reduced_capacity"`
	PressureThreshold float64 `yaml:"pressure_threshold" mapstructure:"pressure_threshold"`
}

// EngineConfig selects the classifier execution boundary
type EngineConfig struct {
	// Kind: "rules" (in-process), "remote" (HTTP boundary), "llm"
	Kind      string `yaml:"kind" mapstructure:"kind"`
	RemoteURL string `yaml:"remote_url" mapstructure:"remote_url"`
	// LLM settings, used only when Kind is "llm"
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai or ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
	NoColor       bool `yaml:"no_color" mapstructure:"no_color"`
}

// DefaultConfig returns the standard configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "ClauseGuard/0.1 (+https://github.com/clauseguard/clauseguard)",
			MaxBodyBytes: 2_000_000,
		},
		Detect: DetectConfig{
			ResolveLinks:     true,
			RespectRobots:    true,
			ResolveRatePerS:  2,
			ResolveBurst:     4,
			ObserverDebounce: time.Second,
		},
		Analysis: AnalysisConfig{
			Timeout: 30 * time.Second,
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled:           true,
			Capacity:          100,
			ReducedCapacity:   50,
			PressureThreshold: 0.8,
		},
		Engine: EngineConfig{
			Kind:      "rules",
			MaxTokens: 1500,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
