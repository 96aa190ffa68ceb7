// Command portfolio-chat serves the portfolio chat API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	portfoliocmd "github.com/yuribarsotti/agentlab/internal/cmd/portfolio"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := portfoliocmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := portfoliocmd.Run(ctx, cfg); err != nil {
		config.Exitf("portfolio-chat: %v", err)
	}
}
