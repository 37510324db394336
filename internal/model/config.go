package model

import "time"

// Config holds the full runtime configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
	Search    SearchConfig    `yaml:"search" json:"search"`
	Verify    VerifyConfig    `yaml:"verify" json:"verify"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Output    OutputConfig    `yaml:"output" json:"output"`
}

// HTTPConfig controls the inbound server and shared outbound HTTP behavior
type HTTPConfig struct {
	Listen       string        `yaml:"listen" json:"listen"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`

	// Proxy settings for outbound calls
	HTTPProxy  string `yaml:"http_proxy,omitempty" json:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" json:"https_proxy,omitempty"`
	NoProxy    string `yaml:"no_proxy,omitempty" json:"no_proxy,omitempty"`
}

// LLMConfig selects and configures the completion provider
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "" (disabled)
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
	APIKey   string `yaml:"-" json:"-"` // env only, never written to disk
	BaseURL  string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	Timeout     int     `yaml:"timeout" json:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// SearchConfig configures the external web-search API used to gather
// candidate links
type SearchConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	MaxResults int           `yaml:"max_results" json:"max_results"`
}

// VerifyConfig controls URL verification policy
type VerifyConfig struct {
	// AllowedSuffix restricts which hostnames are trusted enough to
	// surface (e.g. ".ae")
	AllowedSuffix string `yaml:"allowed_suffix" json:"allowed_suffix"`

	ProbeTimeout time.Duration `yaml:"probe_timeout" json:"probe_timeout"`
	GetTimeout   time.Duration `yaml:"get_timeout" json:"get_timeout"`
	MaxBatch     int           `yaml:"max_batch" json:"max_batch"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`

	// AssumeLiveOnFailure treats allowed-suffix URLs whose probes fail on
	// network errors as live. A deliberate trust bias, configurable so it
	// can be turned off.
	AssumeLiveOnFailure bool `yaml:"assume_live_on_failure" json:"assume_live_on_failure"`

	// OverallDeadline bounds the whole verification step; on expiry the
	// answer ships without links.
	OverallDeadline time.Duration `yaml:"overall_deadline" json:"overall_deadline"`

	// Enrich fetches page titles for verified links
	Enrich bool `yaml:"enrich" json:"enrich"`
}

// RateLimitConfig controls the fixed-window inbound request limiter
type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// CacheConfig controls probe/search result caching
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	Dir     string        `yaml:"dir,omitempty" json:"dir,omitempty"` // enables the disk layer
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Listen:       ":8080",
			UserAgent:    "Maktaba/0.1 (+https://github.com/maktabalabs/maktaba)",
			MaxBodyBytes: 1_000_000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "",
			Model:       "",
			Timeout:     30,
			MaxTokens:   1000,
			Temperature: 0.3,
		},
		Search: SearchConfig{
			Enabled:    false,
			Timeout:    10 * time.Second,
			MaxResults: 10,
		},
		Verify: VerifyConfig{
			AllowedSuffix:       ".ae",
			ProbeTimeout:        8 * time.Second,
			GetTimeout:          15 * time.Second,
			MaxBatch:            10,
			Concurrency:         3,
			AssumeLiveOnFailure: true,
			OverallDeadline:     30 * time.Second,
			Enrich:              false,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 60,
			Window:   time.Minute,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
	}
}
