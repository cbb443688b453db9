package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and, when present,
// a config.yaml in the working directory. Environment variables use the
// LEXA_ prefix with underscores for nesting (e.g. LEXA_DATABASE_URL) and
// take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEXA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; the environment can carry
		// everything. Any other read error is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")

	// Keys without a meaningful default still need to be registered so
	// AutomaticEnv can resolve them during Unmarshal.
	v.SetDefault("database.url", "")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.prompt_template_path", "prompts/cardset.tmpl")

	v.SetDefault("queue.event_buffer_size", 256)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.backoff_base", 30*time.Second)
	v.SetDefault("queue.completed_retention", 24*time.Hour)
	v.SetDefault("queue.failed_retention", 7*24*time.Hour)
	v.SetDefault("queue.completed_keep", 100)
	v.SetDefault("queue.failed_keep", 100)

	v.SetDefault("pipeline.worker_count", 2)
	v.SetDefault("pipeline.generate_timeout", 2*time.Minute)
	v.SetDefault("pipeline.fetch_timeout", 30*time.Second)
}
