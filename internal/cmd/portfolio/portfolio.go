// Package portfolio parses portfolio-chat flags and serves the chat API.
package portfolio

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/internal/httpserver"
	"github.com/yuribarsotti/agentlab/internal/notify"
	chat "github.com/yuribarsotti/agentlab/internal/portfolio"
	"github.com/yuribarsotti/agentlab/internal/telemetry"
	"github.com/yuribarsotti/agentlab/knowledge"
	kbsqlite "github.com/yuribarsotti/agentlab/knowledge/sqlite"
	"github.com/yuribarsotti/agentlab/model/openai"
)

// Config holds portfolio-chat configuration.
type Config struct {
	Addr             string   `env:"PORTFOLIO_HTTP_ADDR" envDefault:"0.0.0.0:8000"`
	APIKey           string   `env:"API_KEY"`
	AllowedOrigins   []string `env:"PORTFOLIO_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://portfolio-v2-pearl-one.vercel.app,https://www.yuribarsotti.tech"`
	SystemPromptFile string   `env:"PORTFOLIO_SYSTEM_PROMPT" envDefault:"./prompts/system_prompt.txt"`
	KnowledgeDB      string   `env:"PORTFOLIO_KNOWLEDGE_DB" envDefault:"./data/knowledge.db"`
	RateLimit        int      `env:"PORTFOLIO_RATE_LIMIT" envDefault:"12"`

	Model       string  `env:"PORTFOLIO_MODEL" envDefault:"gpt-3.5-turbo"`
	Temperature float64 `env:"PORTFOLIO_TEMPERATURE" envDefault:"0.5"`
	MaxTokens   int64   `env:"PORTFOLIO_MAX_TOKENS" envDefault:"150"`
	MaxRetries  int     `env:"PORTFOLIO_MAX_RETRIES" envDefault:"2"`

	RetrieverK         int     `env:"PORTFOLIO_RETRIEVER_K" envDefault:"3"`
	RetrieverThreshold float64 `env:"PORTFOLIO_RETRIEVER_THRESHOLD" envDefault:"0.5"`

	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramChatID string `env:"TELEGRAM_CHAT_ID"`

	Embedder  config.EmbedderConfig
	Log       config.LogConfig
	Telemetry telemetry.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	origins := strings.Join(cfg.AllowedOrigins, ",")

	fs.StringVar(&cfg.Addr, "http-addr", cfg.Addr, "HTTP server address")
	fs.StringVar(&cfg.SystemPromptFile, "system-prompt", cfg.SystemPromptFile, "system prompt file containing {context}")
	fs.StringVar(&cfg.KnowledgeDB, "knowledge-db", cfg.KnowledgeDB, "SQLite knowledge base path")
	fs.StringVar(&origins, "allowed-origins", origins, "comma-separated CORS origins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.AllowedOrigins = splitList(origins)

	if cfg.APIKey == "" {
		return Config{}, errors.New("API_KEY is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// Run serves the chat API until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, closer := cfg.Log.NewLogger(false)
	defer closer.Close()

	shutdown, err := telemetry.Setup(ctx, "portfolio-chat", cfg.Telemetry)
	if err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel.shutdown.error", "error", err.Error())
		}
	}()

	prompt, err := chat.LoadSystemPrompt(cfg.SystemPromptFile)
	if err != nil {
		return err
	}

	store, err := kbsqlite.Open(cfg.KnowledgeDB)
	if err != nil {
		return fmt.Errorf("open knowledge base: %w", err)
	}
	defer store.Close()

	kb, err := knowledge.New(store, config.NewEmbedder(cfg.Embedder))
	if err != nil {
		return err
	}

	llm := openai.NewModel(func(o *openai.Options) {
		o.Model = cfg.Model
		o.Temperature = cfg.Temperature
		o.MaxCompletionTokens = cfg.MaxTokens
		o.MaxRetries = cfg.MaxRetries
		o.APIKey = cfg.Embedder.APIKey
		o.BaseURL = cfg.Embedder.BaseURL
	})

	chain := chat.NewChain(kb.Retriever(cfg.RetrieverK, cfg.RetrieverThreshold), llm, prompt)

	srv := chat.NewServer(chain, func(o *chat.Options) {
		o.APIKey = cfg.APIKey
		o.AllowedOrigins = cfg.AllowedOrigins
		o.RateLimit = cfg.RateLimit
		o.Logger = logger

		if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
			o.Interactions = notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		}
	})

	return httpserver.Serve(ctx, cfg.Addr, srv.Handler(), logger)
}
