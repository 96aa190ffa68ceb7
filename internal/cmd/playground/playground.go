// Package playground parses playground flags and serves the agent API.
package playground

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/internal/httpserver"
	pgapp "github.com/yuribarsotti/agentlab/internal/playground"
	"github.com/yuribarsotti/agentlab/internal/telemetry"
	"github.com/yuribarsotti/agentlab/knowledge"
	kbsqlite "github.com/yuribarsotti/agentlab/knowledge/sqlite"
	"github.com/yuribarsotti/agentlab/session"
	sessionsqlite "github.com/yuribarsotti/agentlab/session/sqlite"
	"github.com/yuribarsotti/agentlab/toolkit/finance"
)

// Config holds playground configuration.
type Config struct {
	Addr        string `env:"PLAYGROUND_HTTP_ADDR" envDefault:"localhost:7777"`
	CatalogFile string `env:"PLAYGROUND_CATALOG"`
	SessionDB   string `env:"PLAYGROUND_SESSION_DB"`
	KnowledgeDB string `env:"PLAYGROUND_KNOWLEDGE_DB"`

	Model     config.ModelConfig
	Embedder  config.EmbedderConfig
	Search    config.SearchConfig
	Log       config.LogConfig
	Telemetry telemetry.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "http-addr", cfg.Addr, "HTTP server address")
	fs.StringVar(&cfg.CatalogFile, "catalog", cfg.CatalogFile, "YAML catalog of agents and teams (default: built-in)")
	fs.StringVar(&cfg.SessionDB, "session-db", cfg.SessionDB, "SQLite session database (default: in memory)")
	fs.StringVar(&cfg.KnowledgeDB, "knowledge-db", cfg.KnowledgeDB, "SQLite knowledge base for knowledge agents")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run serves the playground until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger, closer := cfg.Log.NewLogger(false)
	defer closer.Close()

	shutdown, err := telemetry.Setup(ctx, "playground", cfg.Telemetry)
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

	catalog := pgapp.DefaultCatalog()
	if cfg.CatalogFile != "" {
		if catalog, err = pgapp.LoadCatalog(cfg.CatalogFile); err != nil {
			return err
		}
	}

	llm, err := config.NewModel(cfg.Model)
	if err != nil {
		return err
	}

	search, err := config.NewSearchTool(cfg.Search)
	if err != nil {
		return err
	}

	deps := pgapp.Deps{Model: llm, Search: search, Finance: finance.NewClient()}

	if cfg.KnowledgeDB != "" {
		store, err := kbsqlite.Open(cfg.KnowledgeDB)
		if err != nil {
			return fmt.Errorf("open knowledge base: %w", err)
		}
		defer store.Close()

		if deps.Knowledge, err = knowledge.New(store, config.NewEmbedder(cfg.Embedder)); err != nil {
			return err
		}
	}

	sessions, sessionsCloser, err := openSessions(cfg.SessionDB)
	if err != nil {
		return err
	}
	defer sessionsCloser.Close()

	srv, err := pgapp.NewServer(catalog, deps, func(o *pgapp.Options) {
		o.SessionStore = sessions
		o.Logger = logger
	})
	if err != nil {
		return err
	}

	return httpserver.Serve(ctx, cfg.Addr, srv.Handler(), logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openSessions(path string) (core.SessionStore, io.Closer, error) {
	if path == "" {
		return session.NewInMemoryStore(), nopCloser{}, nil
	}

	store, err := sessionsqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}

	return store, store, nil
}
