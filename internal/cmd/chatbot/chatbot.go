// Package chatbot runs the single node graph chatbot as a line REPL.
package chatbot

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/graph"
	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/model"
)

var quitWords = []string{"quit", "exit", "q"}

// Config holds chatbot configuration.
type Config struct {
	Instructions string `env:"CHATBOT_INSTRUCTIONS"`

	Model config.ModelConfig
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Instructions, "instructions", cfg.Instructions, "system prompt for the chatbot node")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the REPL on in and out.
func Run(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	llm, err := config.NewModel(cfg.Model)
	if err != nil {
		return err
	}

	g, err := NewGraph(llm, cfg.Instructions)
	if err != nil {
		return err
	}

	return REPL(ctx, g, in, out)
}

// NewGraph compiles START -> chatbot -> END.
func NewGraph(llm model.Model, instructions ...string) (*graph.Runnable[graph.MessagesState], error) {
	return graph.New[graph.MessagesState]().
		AddNode("chatbot", graph.ChatbotNode(llm, instructions...)).
		AddEdge(graph.START, "chatbot").
		AddEdge("chatbot", graph.END).
		Compile()
}

// REPL reads one user message per line and prints every node update. Each
// message starts a fresh conversation.
func REPL(ctx context.Context, g *graph.Runnable[graph.MessagesState], in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "User: ")

		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}

		input := strings.TrimSpace(sc.Text())

		if slices.Contains(quitWords, strings.ToLower(input)) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		if input == "" {
			continue
		}

		steps, errs := g.Stream(ctx, graph.MessagesState{Messages: []core.Content{core.NewTextContent("user", input)}})

		for step := range steps {
			if last, ok := step.State.Last(); ok {
				fmt.Fprintln(out, "Assistant:", last.Text())
			}
		}

		if err := <-errs; err != nil {
			return err
		}
	}
}
