// Command weather-mcp serves the demo weather MCP server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	weathercmd "github.com/yuribarsotti/agentlab/internal/cmd/weather"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := weathercmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := weathercmd.Run(ctx, cfg); err != nil {
		config.Exitf("weather: %v", err)
	}
}
