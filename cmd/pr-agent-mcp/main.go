// Command pr-agent-mcp serves the pr-agent MCP server over stdio or HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	pragentcmd "github.com/yuribarsotti/agentlab/internal/cmd/pragent"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := pragentcmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pragentcmd.Run(ctx, cfg); err != nil {
		config.Exitf("pr-agent: %v", err)
	}
}
