// Package config loads configuration from yaml files and MAILSIFT_*
// environment variables, with defaults for every key.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config wraps a viper instance with typed accessors.
type Config struct {
	v *viper.Viper
}

// New loads configuration from the usual locations. A missing config file is
// fine; defaults and environment variables apply either way.
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailsift/")
	v.AddConfigPath("$HOME/.mailsift")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAILSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper wraps an existing viper instance, typically one assembled from
// command line flags.
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper returns a viper instance carrying only the defaults.
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Engine
	v.SetDefault("engine.provider", "artifact")

	// Artifacts
	v.SetDefault("artifact.vectorizer_path", "models/vectorizer.json")
	v.SetDefault("artifact.classifier_path", "models/classifier.json")

	// Text processing
	v.SetDefault("textproc.min_length", 1)
	v.SetDefault("textproc.max_length", 100000)
	v.SetDefault("textproc.preview_length", 500)
	v.SetDefault("textproc.max_raw_size", 1000000)

	// Batch
	v.SetDefault("batch.page_size", 10)
	v.SetDefault("batch.concurrency", 4)

	// Spam policy
	v.SetDefault("spam.whitelisted_domains", []string{})

	// OpenAI engine
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Verdict cache
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/mailsift_verdicts.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/mailsift?parseTime=true")

	// SMTP front-end
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.filter_type", "postfix")
	v.SetDefault("server.block_spam", false)
	v.SetDefault("server.headers.spam", "X-Spam-Status")
	v.SetDefault("server.headers.score", "X-Spam-Score")
	v.SetDefault("server.headers.engine", "X-Spam-Engine")
	v.SetDefault("server.postfix_addr", "127.0.0.1")
	v.SetDefault("server.postfix_port", 10026)
	v.SetDefault("server.postfix_enabled", true)
	v.SetDefault("server.subject_prefix", "")
	v.SetDefault("server.modify_subject", false)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration.
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration.
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration.
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration parses a duration value from the configuration.
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying viper instance.
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
