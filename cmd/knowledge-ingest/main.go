// Command knowledge-ingest indexes URLs and local files into a SQLite knowledge base.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	ingestcmd "github.com/yuribarsotti/agentlab/internal/cmd/ingest"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := ingestcmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ingestcmd.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("ingest: %v", err)
	}
}
