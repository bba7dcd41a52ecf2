// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendLimit configures pacing and retries for one named external
// backend.
type BackendLimit struct {
	// MinInterval is the minimum delay between the start of
	// consecutive calls to the backend.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// MaxRetries is the number of retry attempts after a transient
	// failure (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RateLimitConfig maps backend names ("source", "fast-model",
// "deep-model", "embeddings") to their pacing settings. Backends not
// listed use DefaultLimit.
type RateLimitConfig struct {
	// Backends holds per-backend pacing overrides.
	Backends map[string]BackendLimit `json:"backends,omitempty" yaml:"backends,omitempty"`

	// DefaultLimit applies to backends without an override.
	DefaultLimit BackendLimit `json:"default_limit" yaml:"default_limit"`

	// BackoffBase is the initial retry backoff delay; it doubles each
	// attempt (default 2s).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`

	// BackoffCeiling caps the retry backoff delay (default 60s).
	BackoffCeiling time.Duration `json:"backoff_ceiling" yaml:"backoff_ceiling"`
}

// SourceConfig holds settings for the paper source client.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of results requested per page (default 25).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxPapers is the default maximum result count (default 15).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`

	// DaysBack is the default lookback window in days (default 730).
	DaysBack int `json:"days_back" yaml:"days_back"`

	// Categories is the default category filter set.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// ModelConfig holds settings for one language-model backend.
type ModelConfig struct {
	// Model is the backend's model identifier
	// (e.g. "llama-3.3-70b-versatile", "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the backend. An empty key means the
	// backend is not configured.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Temperature is the sampling temperature.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxTokens bounds the response length (default 1024).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Timeout is the per-request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// EmbeddingConfig holds settings for the embedding backend.
type EmbeddingConfig struct {
	// Model is the embedding model identifier
	// (e.g. "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates against the backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AnalysisConfig holds thresholds for the trend/gap analyzer.
type AnalysisConfig struct {
	// TopTerms is the number of common terms reported (default 20).
	TopTerms int `json:"top_terms" yaml:"top_terms"`

	// GapThreshold is the fraction of papers below which a category or
	// methodology is flagged underexplored (default 0.2).
	GapThreshold float64 `json:"gap_threshold" yaml:"gap_threshold"`
}

// StorageConfig holds settings for the session store.
type StorageConfig struct {
	// Dir is the session store root directory (default "sessions").
	Dir string `json:"dir" yaml:"dir"`
}

// OutputConfig holds settings for report output.
type OutputConfig struct {
	// ReportsDir is the directory for generated reports
	// (default "output/reports").
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`
}

// PipelineConfig groups all component configurations. It is assembled
// once in the CLI from flags, config file, and secrets, then handed to
// each component's constructor; no component reads ambient state.
type PipelineConfig struct {
	Source    SourceConfig    `json:"source" yaml:"source"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	FastModel ModelConfig     `json:"fast_model" yaml:"fast_model"`
	DeepModel ModelConfig     `json:"deep_model" yaml:"deep_model"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Analysis  AnalysisConfig  `json:"analysis" yaml:"analysis"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Output    OutputConfig    `json:"output" yaml:"output"`
}
