// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/nvega/genbridge/internal/gen"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// ProxyBaseURL is the local proxy every HTTP adapter submits through.
	ProxyBaseURL string `env:"PROXY_BASE_URL, default=http://127.0.0.1:8045" json:"proxy_base_url"`

	// Catalog settings
	CatalogURL    string `env:"CATALOG_URL" json:"catalog_url,omitempty"`
	CatalogTTLSec int    `env:"CATALOG_TTL_SEC, default=300" json:"catalog_ttl_sec"`

	// Upstream credentials, one named lookup key per service. Masked in JSON.
	VectorAPIKey  string `env:"VECTOR_API_KEY" json:"-"`
	KlingAPIKey   string `env:"KLING_API_KEY" json:"-"`
	ViduAPIKey    string `env:"VIDU_API_KEY" json:"-"`
	ArkAPIKey     string `env:"ARK_API_KEY" json:"-"`
	QwenAPIKey    string `env:"QWEN_API_KEY" json:"-"`
	GLMAPIKey     string `env:"GLM_API_KEY" json:"-"`
	MinimaxAPIKey string `env:"MINIMAX_API_KEY" json:"-"`

	// Archive settings
	ArchiveDir         string `env:"ARCHIVE_DIR, default=/tmp/genbridge" json:"archive_dir"`
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"`

	// Polling settings
	MaxConcurrentPolls int `env:"MAX_CONCURRENT_POLLS, default=4" json:"max_concurrent_polls"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// credentialKeys maps a provider registry name to its environment lookup key.
var credentialKeys = map[string]string{
	"vector":  "VECTOR_API_KEY",
	"kling":   "KLING_API_KEY",
	"vidu":    "VIDU_API_KEY",
	"ark":     "ARK_API_KEY",
	"qwen":    "QWEN_API_KEY",
	"glm":     "GLM_API_KEY",
	"minimax": "MINIMAX_API_KEY",
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// CatalogTTL returns the catalog freshness window as a duration.
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogTTLSec) * time.Second
}

// Credential returns the API key for the named upstream service. A missing
// key yields a *gen.ConfigurationError before any network attempt is made.
func (c *Config) Credential(provider string) (string, error) {
	key, ok := credentialKeys[provider]
	if !ok {
		return "", &gen.ConfigurationError{Key: provider}
	}

	var value string
	switch provider {
	case "vector":
		value = c.VectorAPIKey
	case "kling":
		value = c.KlingAPIKey
	case "vidu":
		value = c.ViduAPIKey
	case "ark":
		value = c.ArkAPIKey
	case "qwen":
		value = c.QwenAPIKey
	case "glm":
		value = c.GLMAPIKey
	case "minimax":
		value = c.MinimaxAPIKey
	}

	if strings.TrimSpace(value) == "" {
		return "", &gen.ConfigurationError{Key: key}
	}
	return value, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, ProxyBaseURL: %s, CatalogURL: %s, ArchiveDir: %s, S3Bucket: %s, S3Region: %s, MaxConcurrentPolls: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.ProxyBaseURL,
		c.CatalogURL,
		c.ArchiveDir,
		c.S3Bucket,
		c.S3Region,
		c.MaxConcurrentPolls,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
