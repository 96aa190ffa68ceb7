// Package config loads command configuration from the environment and
// builds the shared model, embedder and logger from it.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/yuribarsotti/agentlab/logging"
	"github.com/yuribarsotti/agentlab/model"
	"github.com/yuribarsotti/agentlab/model/anthropic"
	"github.com/yuribarsotti/agentlab/model/openai"
	"github.com/yuribarsotti/agentlab/tool"
	"github.com/yuribarsotti/agentlab/toolkit/websearch"
)

// ErrUnknownProvider is returned by NewModel for unsupported providers.
var ErrUnknownProvider = errors.New("unknown model provider")

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// ParseEnvFrom loads configuration from environ (KEY=VALUE pairs) instead of
// the process environment. A nil environ falls back to ParseEnv.
func ParseEnvFrom(target any, environ []string) error {
	if environ == nil {
		return ParseEnv(target)
	}

	if err := env.ParseWithOptions(target, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// ModelConfig selects and configures the chat model.
type ModelConfig struct {
	Provider    string  `env:"AGENTLAB_MODEL_PROVIDER" envDefault:"openai"`
	Model       string  `env:"AGENTLAB_MODEL"`
	Temperature float64 `env:"AGENTLAB_MODEL_TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int64   `env:"AGENTLAB_MODEL_MAX_TOKENS" envDefault:"4096"`
	MaxRetries  int     `env:"AGENTLAB_MODEL_MAX_RETRIES" envDefault:"2"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `env:"ANTHROPIC_BASE_URL"`
}

// NewModel builds the configured chat model. An empty Model keeps the
// provider default.
func NewModel(cfg ModelConfig) (model.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}

			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.MaxRetries = cfg.MaxRetries
			o.APIKey = cfg.OpenAIAPIKey
			o.BaseURL = cfg.OpenAIBaseURL
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}

			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.MaxRetries = cfg.MaxRetries
			o.APIKey = cfg.AnthropicAPIKey
			o.BaseURL = cfg.AnthropicBaseURL
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// EmbedderConfig configures the OpenAI embedder used for knowledge bases.
type EmbedderConfig struct {
	Model   string `env:"AGENTLAB_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	APIKey  string `env:"OPENAI_API_KEY"`
	BaseURL string `env:"OPENAI_BASE_URL"`
}

// NewEmbedder builds the OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) *openai.Embedder {
	return openai.NewEmbedder(func(o *openai.EmbedderOptions) {
		o.Model = cfg.Model
		o.APIKey = cfg.APIKey
		o.BaseURL = cfg.BaseURL
	})
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `env:"AGENTLAB_LOG_LEVEL" envDefault:"info"`
	Format     string `env:"AGENTLAB_LOG_FORMAT" envDefault:"json"`
	File       string `env:"AGENTLAB_LOG_FILE"`
	MaxSizeMB  int    `env:"AGENTLAB_LOG_MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"AGENTLAB_LOG_MAX_BACKUPS" envDefault:"3"`
	Stdout     bool   `env:"AGENTLAB_LOG_STDOUT" envDefault:"true"`
}

// Logging converts the configuration to logging.Config.
func (c LogConfig) Logging() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.Level
	lc.Format = c.Format
	lc.File = c.File
	lc.MaxSizeMB = c.MaxSizeMB
	lc.MaxBackups = c.MaxBackups
	lc.Stdout = c.Stdout

	return lc
}

// NewLogger builds the process logger. With stdio set stdout is reserved
// for a protocol stream, so console output goes to stderr instead.
func (c LogConfig) NewLogger(stdio bool) (*logging.SlogAdapter, io.Closer) {
	lc := c.Logging()

	if stdio {
		if lc.File == "" {
			lc.Output = os.Stderr
		}

		lc.Stdout = false
	}

	return logging.New(lc)
}

// SearchConfig selects the web search backend.
type SearchConfig struct {
	SerperAPIKey string `env:"SERPER_API_KEY"`
}

// NewSearchTool returns the Serper tool when an API key is configured and
// DuckDuckGo otherwise.
func NewSearchTool(cfg SearchConfig) (tool.Tool, error) {
	if cfg.SerperAPIKey == "" {
		return websearch.NewDuckDuckGo().Tool(), nil
	}

	serper, err := websearch.NewSerper(func(o *websearch.SerperOptions) {
		o.APIKey = cfg.SerperAPIKey
	})
	if err != nil {
		return nil, err
	}

	return serper.Tool(), nil
}
