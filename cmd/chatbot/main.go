// Command chatbot is a line based chatbot over a single node graph.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	chatbotcmd "github.com/yuribarsotti/agentlab/internal/cmd/chatbot"
	"github.com/yuribarsotti/agentlab/internal/config"
)

func main() {
	cfg, err := chatbotcmd.ParseConfig(flag.CommandLine, os.Args[1:], os.Environ())
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := chatbotcmd.Run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		config.Exitf("chatbot: %v", err)
	}
}
