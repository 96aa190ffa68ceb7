// Command playground serves the agent playground API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	playgroundcmd "github.com/yuribarsotti/agentlab/internal/cmd/playground"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := playgroundcmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := playgroundcmd.Run(ctx, cfg); err != nil {
		config.Exitf("playground: %v", err)
	}
}
