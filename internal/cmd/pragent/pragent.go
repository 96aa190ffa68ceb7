// Package pragent parses pr-agent MCP command flags and serves the server.
package pragent

import (
	"context"
	"flag"
	"time"

	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/internal/mcpserver"
	prserver "github.com/yuribarsotti/agentlab/internal/mcpserver/pragent"
	"github.com/yuribarsotti/agentlab/internal/notify"
	"github.com/yuribarsotti/agentlab/internal/telemetry"
)

// Config holds pr-agent command configuration.
type Config struct {
	Transport       string `env:"PR_AGENT_TRANSPORT" envDefault:"stdio"`
	Addr            string `env:"PR_AGENT_HTTP_ADDR" envDefault:"localhost:8000"`
	TemplatesDir    string `env:"PR_AGENT_TEMPLATES_DIR"`
	EventsFile      string `env:"PR_AGENT_EVENTS_FILE" envDefault:"github_events.json"`
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`

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
	fs.StringVar(&cfg.TemplatesDir, "templates-dir", cfg.TemplatesDir, "directory overriding the built-in PR templates")
	fs.StringVar(&cfg.EventsFile, "events-file", cfg.EventsFile, "GitHub webhook events JSON file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run serves the pr-agent MCP server until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, closer := cfg.Log.NewLogger(cfg.Transport != mcpserver.TransportHTTP)
	defer closer.Close()

	shutdown, err := telemetry.Setup(ctx, prserver.Name, cfg.Telemetry)
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

	server := prserver.NewServer(func(o *prserver.Options) {
		o.TemplatesDir = cfg.TemplatesDir
		o.EventsFile = cfg.EventsFile
		o.Logger = logger

		if cfg.SlackWebhookURL != "" {
			o.Notifier = notify.NewSlack(cfg.SlackWebhookURL, nil)
		}
	})

	return mcpserver.Serve(ctx, server, mcpserver.ServeOptions{
		Transport: cfg.Transport,
		Addr:      cfg.Addr,
		Logger:    logger,
	})
}
