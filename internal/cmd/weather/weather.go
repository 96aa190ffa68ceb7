// Package weather parses weather MCP command flags and serves the server.
package weather

import (
	"context"
	"flag"
	"time"

	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/internal/mcpserver"
	weatherserver "github.com/yuribarsotti/agentlab/internal/mcpserver/weather"
	"github.com/yuribarsotti/agentlab/internal/telemetry"
)

// Config holds weather command configuration.
type Config struct {
	Transport string `env:"WEATHER_MCP_TRANSPORT" envDefault:"stdio"`
	Addr      string `env:"WEATHER_MCP_HTTP_ADDR" envDefault:"localhost:8001"`

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

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run serves the weather MCP server until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, closer := cfg.Log.NewLogger(cfg.Transport != mcpserver.TransportHTTP)
	defer closer.Close()

	shutdown, err := telemetry.Setup(ctx, "weather-mcp", cfg.Telemetry)
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

	return mcpserver.Serve(ctx, weatherserver.NewServer(), mcpserver.ServeOptions{
		Transport: cfg.Transport,
		Addr:      cfg.Addr,
		Logger:    logger,
	})
}
