// Package messenger parses messenger MCP command flags and serves the
// server. It defaults to streamable HTTP.
package messenger

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/internal/mcpserver"
	messengerserver "github.com/yuribarsotti/agentlab/internal/mcpserver/messenger"
	"github.com/yuribarsotti/agentlab/internal/notify"
	"github.com/yuribarsotti/agentlab/internal/telemetry"
)

// Config holds messenger command configuration.
type Config struct {
	Transport  string `env:"MESSENGER_MCP_TRANSPORT" envDefault:"http"`
	Addr       string `env:"MESSENGER_MCP_HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Sender     string `env:"MESSENGER_SENDER" envDefault:"BarsoBot"`

	Log       config.LogConfig
	Telemetry telemetry.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Addr, "http-addr", cfg.Addr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.WebhookURL, "webhook-url", cfg.WebhookURL, "webhook receiving sent messages")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.WebhookURL == "" {
		return Config{}, errors.New("WEBHOOK_URL is required")
	}

	return cfg, nil
}

// Run serves the messenger MCP server until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, closer := cfg.Log.NewLogger(cfg.Transport != mcpserver.TransportHTTP)
	defer closer.Close()

	shutdown, err := telemetry.Setup(ctx, messengerserver.Name, cfg.Telemetry)
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

	webhook := notify.NewWebhook(cfg.WebhookURL, cfg.Sender, nil)

	return mcpserver.Serve(ctx, messengerserver.NewServer(webhook), mcpserver.ServeOptions{
		Transport: cfg.Transport,
		Addr:      cfg.Addr,
		Logger:    logger,
	})
}
