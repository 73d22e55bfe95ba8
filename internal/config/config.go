// Package config provides configuration loading for orderd.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/quirelabs/orderd/internal/advisor"
	"github.com/quirelabs/orderd/internal/embeddings"
	"github.com/quirelabs/orderd/internal/page"
	"github.com/quirelabs/orderd/internal/resolver"
)

// ErrInvalidConfig indicates a configuration value failed validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full orderd configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Advisor   AdvisorConfig   `koanf:"advisor"`
	Ordering  OrderingConfig  `koanf:"ordering"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// EmbeddingConfig holds the embedding service and indexer settings.
type EmbeddingConfig struct {
	Service embeddings.Config        `koanf:",squash"`
	Indexer embeddings.IndexerConfig `koanf:",squash"`
}

// AdvisorConfig holds the reasoning-service settings. Enabled defaults to
// true; disabling it makes every request take the deterministic path.
type AdvisorConfig struct {
	Enabled bool                 `koanf:"enabled"`
	Client  advisor.ClientConfig `koanf:",squash"`
	Options advisor.Options      `koanf:",squash"`
}

// OrderingConfig holds the resolver tunables.
type OrderingConfig struct {
	Resolver resolver.Options `koanf:",squash"`

	// MinTextRunes is the threshold below which a page counts as empty.
	MinTextRunes int `koanf:"min_text_runes"`
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfig)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if err := c.Embedding.Service.Validate(); err != nil {
		return err
	}
	if c.Advisor.Enabled {
		if err := c.Advisor.Client.Validate(); err != nil {
			return err
		}
	}
	if err := c.Ordering.Resolver.Weights.Validate(); err != nil {
		return err
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Embedding.Service.BaseURL == "" {
		cfg.Embedding.Service.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Embedding.Service.Model == "" {
		cfg.Embedding.Service.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embedding.Indexer.MaxTextRunes == 0 {
		cfg.Embedding.Indexer.MaxTextRunes = embeddings.DefaultMaxTextRunes
	}
	if cfg.Embedding.Indexer.Timeout == 0 {
		cfg.Embedding.Indexer.Timeout = embeddings.DefaultTimeout
	}

	if cfg.Advisor.Client.BaseURL == "" {
		cfg.Advisor.Client.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Advisor.Client.Model == "" {
		cfg.Advisor.Client.Model = "llama3"
	}
	if cfg.Advisor.Options.MaxExcerptRunes == 0 {
		cfg.Advisor.Options.MaxExcerptRunes = advisor.DefaultMaxExcerptRunes
	}
	if cfg.Advisor.Options.Timeout == 0 {
		cfg.Advisor.Options.Timeout = advisor.DefaultTimeout
	}

	defaults := resolver.DefaultOptions()
	if cfg.Ordering.Resolver.Weights.Semantic == 0 && cfg.Ordering.Resolver.Weights.Flow == 0 {
		cfg.Ordering.Resolver.Weights = defaults.Weights
	}
	if cfg.Ordering.Resolver.NeutralFlowScore == 0 {
		cfg.Ordering.Resolver.NeutralFlowScore = defaults.NeutralFlowScore
	}
	if cfg.Ordering.Resolver.TitleKeywords == nil {
		cfg.Ordering.Resolver.TitleKeywords = defaults.TitleKeywords
	}
	if cfg.Ordering.Resolver.DuplicateThreshold == 0 {
		cfg.Ordering.Resolver.DuplicateThreshold = defaults.DuplicateThreshold
	}
	if cfg.Ordering.Resolver.GapThreshold == 0 {
		cfg.Ordering.Resolver.GapThreshold = defaults.GapThreshold
	}
	if cfg.Ordering.MinTextRunes == 0 {
		cfg.Ordering.MinTextRunes = page.DefaultMinTextRunes
	}
}
