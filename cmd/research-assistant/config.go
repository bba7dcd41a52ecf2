package main

import (
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const defaultUserAgent = "research-assistant/0.1"

// pipelineConfig assembles the full pipeline configuration from the
// viper config file, environment, and loaded secrets. Components never
// read ambient state; everything flows through this struct.
func pipelineConfig() types.PipelineConfig {
	viper.SetDefault("source.page_size", 25)
	viper.SetDefault("source.max_papers", 15)
	viper.SetDefault("source.days_back", 730)
	viper.SetDefault("source.timeout", "30s")
	viper.SetDefault("rate_limit.backoff_base", "2s")
	viper.SetDefault("rate_limit.backoff_ceiling", "60s")
	viper.SetDefault("rate_limit.default.min_interval", "1s")
	viper.SetDefault("rate_limit.default.max_retries", 3)
	viper.SetDefault("rate_limit.source.min_interval", "3s")
	viper.SetDefault("fast_model.model", "llama-3.3-70b-versatile")
	viper.SetDefault("fast_model.temperature", 0.3)
	viper.SetDefault("deep_model.model", "gpt-4o")
	viper.SetDefault("deep_model.temperature", 0.2)
	viper.SetDefault("deep_model.max_tokens", 2048)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("analysis.top_terms", 20)
	viper.SetDefault("analysis.gap_threshold", 0.2)
	viper.SetDefault("storage.dir", "sessions")
	viper.SetDefault("output.reports_dir", "output/reports")

	groqKey := secretDefault("groq-api-key", viper.GetString("fast_model.api_key"))
	openaiKey := secretDefault("openai-api-key", viper.GetString("deep_model.api_key"))

	return types.PipelineConfig{
		Source: types.SourceConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("source.timeout"),
				UserAgent: defaultUserAgent,
			},
			PageSize:   viper.GetInt("source.page_size"),
			MaxPapers:  viper.GetInt("source.max_papers"),
			DaysBack:   viper.GetInt("source.days_back"),
			Categories: viper.GetStringSlice("source.categories"),
		},
		RateLimit: types.RateLimitConfig{
			Backends: map[string]types.BackendLimit{
				"source": {
					MinInterval: viper.GetDuration("rate_limit.source.min_interval"),
					MaxRetries:  viper.GetInt("rate_limit.default.max_retries"),
				},
			},
			DefaultLimit: types.BackendLimit{
				MinInterval: viper.GetDuration("rate_limit.default.min_interval"),
				MaxRetries:  viper.GetInt("rate_limit.default.max_retries"),
			},
			BackoffBase:    viper.GetDuration("rate_limit.backoff_base"),
			BackoffCeiling: viper.GetDuration("rate_limit.backoff_ceiling"),
		},
		FastModel: types.ModelConfig{
			Model:       viper.GetString("fast_model.model"),
			APIKey:      groqKey,
			Temperature: viper.GetFloat64("fast_model.temperature"),
			MaxTokens:   viper.GetInt("fast_model.max_tokens"),
			Timeout:     viper.GetDuration("fast_model.timeout"),
		},
		DeepModel: types.ModelConfig{
			Model:       viper.GetString("deep_model.model"),
			APIKey:      openaiKey,
			Temperature: viper.GetFloat64("deep_model.temperature"),
			MaxTokens:   viper.GetInt("deep_model.max_tokens"),
			Timeout:     viper.GetDuration("deep_model.timeout"),
		},
		Embedding: types.EmbeddingConfig{
			Model:   viper.GetString("embedding.model"),
			APIKey:  openaiKey,
			Timeout: viper.GetDuration("embedding.timeout"),
		},
		Analysis: types.AnalysisConfig{
			TopTerms:     viper.GetInt("analysis.top_terms"),
			GapThreshold: viper.GetFloat64("analysis.gap_threshold"),
		},
		Storage: types.StorageConfig{
			Dir: viper.GetString("storage.dir"),
		},
		Output: types.OutputConfig{
			ReportsDir: viper.GetString("output.reports_dir"),
		},
	}
}
