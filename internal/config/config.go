package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ServerConfig contains process-level configuration settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all generation-related settings.
type LLMConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"required"`
}

// QueueConfig contains work queue tuning settings.
type QueueConfig struct {
	// EventBufferSize is the capacity of the lifecycle event channel.
	EventBufferSize int `mapstructure:"event_buffer_size" validate:"gte=0"`

	// MaxAttempts is the default retry budget for enqueued jobs.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`

	// BackoffBase is the delay before the first retry; it doubles on each
	// subsequent attempt.
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// CompletedRetention and FailedRetention bound how long terminal
	// queue items are kept for diagnostics before the janitor prunes them.
	CompletedRetention time.Duration `mapstructure:"completed_retention"`
	FailedRetention    time.Duration `mapstructure:"failed_retention"`

	// CompletedKeep and FailedKeep bound how many of the most recent
	// terminal items survive pruning regardless of age.
	CompletedKeep int `mapstructure:"completed_keep" validate:"gte=0"`
	FailedKeep    int `mapstructure:"failed_keep" validate:"gte=0"`
}

// PipelineConfig contains worker pool tuning settings.
type PipelineConfig struct {
	// WorkerCount determines how many concurrent workers lease queue items.
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`

	// GenerateTimeout bounds a single call to the generation capability.
	// A timeout is reported as a transient failure so the queue's retry
	// policy applies.
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`

	// FetchTimeout bounds retrieval of url sources.
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}
