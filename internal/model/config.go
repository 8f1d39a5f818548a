package model

import "time"

// Config holds the full planproof configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Cache       CacheConfig       `yaml:"cache"`
	Render      RenderConfig      `yaml:"render"`
	History     HistoryConfig     `yaml:"history"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures the inference provider
type LLMConfig struct {
	Provider       string  `yaml:"provider"`        // "openai", "ollama"
	Model          string  `yaml:"model"`           // provider-specific model name
	APIKey         string  `yaml:"api_key"`         // prefer env vars over config file
	BaseURL        string  `yaml:"base_url"`        // custom endpoints (e.g. Ollama)
	Timeout        int     `yaml:"timeout"`         // per-page inference ceiling, seconds
	MaxTokens      int     `yaml:"max_tokens"`      //
	SchemaRetries  int     `yaml:"schema_retries"`  // corrective retries on invalid output
	RequestRetries int     `yaml:"request_retries"` // transient transport retries
	RatePerSecond  float64 `yaml:"rate_per_second"` // inference call rate limit
	RateBurst      int     `yaml:"rate_burst"`      //

	// Proxy settings for the provider HTTP client
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// ConcurrencyConfig bounds the per-page extraction fan-out
type ConcurrencyConfig struct {
	ExtractWorkers int `yaml:"extract_workers"`
}

// CacheConfig configures inference response caching
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	Dir             string        `yaml:"dir"` // disk cache location, empty = memory only
}

// RenderConfig configures the PDF rendering collaborator adapter
type RenderConfig struct {
	WorkDir string `yaml:"work_dir"` // where per-page refs are written, empty = temp
	TextDir string `yaml:"text_dir"` // sidecar extracted-text directory (page-N.txt)
}

// HistoryConfig configures the review history store
type HistoryConfig struct {
	Path string `yaml:"path"` // sqlite database path
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			Timeout:        90,
			MaxTokens:      2000,
			SchemaRetries:  2,
			RequestRetries: 3,
			RatePerSecond:  1,
			RateBurst:      2,
		},
		Concurrency: ConcurrencyConfig{
			ExtractWorkers: 4,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             24 * time.Hour,
			CleanupInterval: time.Hour,
		},
		History: HistoryConfig{
			Path: "", // resolved to ~/.planproof/reviews.db by the CLI
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
