// Command messenger-mcp serves the messenger MCP server relaying messages to a webhook.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	messengercmd "github.com/yuribarsotti/agentlab/internal/cmd/messenger"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := messengercmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := messengercmd.Run(ctx, cfg); err != nil {
		config.Exitf("messenger: %v", err)
	}
}
