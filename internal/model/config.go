package model

import (
	"fmt"
	"net/url"
	"runtime"
	"time"
)

// Config is the complete client configuration
type Config struct {
	Env          string             `yaml:"env" mapstructure:"env"`
	API          APIConfig          `yaml:"api" mapstructure:"api"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Export       ExportConfig       `yaml:"export" mapstructure:"export"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// APIConfig configures the backend HTTP collaborator
type APIConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// RateLimitingConfig throttles outgoing requests per backend host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures caching of raw report payloads
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HistoryConfig configures the client-local recency list
type HistoryConfig struct {
	RecentFile  string `yaml:"recent_file" mapstructure:"recent_file"`
	RecentLimit int    `yaml:"recent_limit" mapstructure:"recent_limit"` // 0 = unbounded
}

// ExportConfig configures report document downloads
type ExportConfig struct {
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	DefaultFilename string `yaml:"default_filename" mapstructure:"default_filename"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Format  string `yaml:"format" mapstructure:"format"` // text, json, yaml
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Env: "local",
		API: APIConfig{
			BaseURL:      "http://localhost:8000",
			Timeout:      30 * time.Second,
			UserAgent:    "dfd/0.1 (+https://github.com/RoNRiShaV/dfd)",
			MaxBodyBytes: 50 << 20,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "~/.dfd/cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		History: HistoryConfig{
			RecentFile:  "~/.dfd/recent.json",
			RecentLimit: 50,
		},
		Export: ExportConfig{
			OutputDir:       ".",
			DefaultFilename: "report.pdf",
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the client cannot work with
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.History.RecentLimit < 0 {
		return fmt.Errorf("history.recent_limit must not be negative")
	}
	switch c.Output.Format {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output.format %q (supported: text, json, yaml)", c.Output.Format)
	}
	return nil
}
