// Package ingest loads URLs and local files into a SQLite knowledge base.
package ingest

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/yuribarsotti/agentlab/internal/config"
	"github.com/yuribarsotti/agentlab/knowledge"
	kbsqlite "github.com/yuribarsotti/agentlab/knowledge/sqlite"
)

// Config holds knowledge-ingest configuration.
type Config struct {
	DB           string   `env:"AGENTLAB_KNOWLEDGE_DB" envDefault:"./data/knowledge.db"`
	URLs         []string `env:"AGENTLAB_KNOWLEDGE_URLS" envSeparator:","`
	Paths        []string `env:"AGENTLAB_KNOWLEDGE_PATHS" envSeparator:","`
	ChunkSize    int      `env:"AGENTLAB_CHUNK_SIZE" envDefault:"1000"`
	ChunkOverlap int      `env:"AGENTLAB_CHUNK_OVERLAP" envDefault:"100"`
	Recreate     bool     `env:"AGENTLAB_KNOWLEDGE_RECREATE"`
	// HashDims > 0 selects the offline hash embedder instead of OpenAI.
	HashDims int `env:"AGENTLAB_HASH_EMBEDDER_DIMS"`

	Embedder config.EmbedderConfig
}

type listFlag struct{ values *[]string }

func (f listFlag) String() string {
	if f.values == nil {
		return ""
	}

	return strings.Join(*f.values, ",")
}

func (f listFlag) Set(v string) error {
	*f.values = append(*f.values, v)
	return nil
}

// ParseConfig parses environment and flags into a Config. -url and -path
// may be repeated.
func ParseConfig(fs *flag.FlagSet, args, environ []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DB, "db", cfg.DB, "SQLite knowledge base path")
	fs.Var(listFlag{&cfg.URLs}, "url", "URL to index (repeatable)")
	fs.Var(listFlag{&cfg.Paths}, "path", "file or directory to index (repeatable)")
	fs.IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "chunk size in characters")
	fs.IntVar(&cfg.ChunkOverlap, "chunk-overlap", cfg.ChunkOverlap, "chunk overlap in characters")
	fs.BoolVar(&cfg.Recreate, "recreate", cfg.Recreate, "clear the knowledge base before indexing")
	fs.IntVar(&cfg.HashDims, "hash-dims", cfg.HashDims, "use the offline hash embedder with this many dimensions")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if len(cfg.URLs) == 0 && len(cfg.Paths) == 0 {
		return Config{}, errors.New("at least one -url or -path is required")
	}

	return cfg, nil
}

// Run indexes every source and reports the resulting document count.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := kbsqlite.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open knowledge base: %w", err)
	}
	defer store.Close()

	var embedder knowledge.Embedder = config.NewEmbedder(cfg.Embedder)
	if cfg.HashDims > 0 {
		embedder = knowledge.NewHashEmbedder(cfg.HashDims)
	}

	var loaders []knowledge.Loader
	if len(cfg.URLs) > 0 {
		loaders = append(loaders, knowledge.NewURLLoader(cfg.URLs...))
	}

	if len(cfg.Paths) > 0 {
		loaders = append(loaders, knowledge.NewFileLoader(cfg.Paths...))
	}

	kb, err := knowledge.New(store, embedder, func(o *knowledge.Options) {
		o.ChunkSize = cfg.ChunkSize
		o.ChunkOverlap = cfg.ChunkOverlap
		o.Loaders = loaders
	})
	if err != nil {
		return err
	}

	if err := kb.Load(ctx, cfg.Recreate); err != nil {
		return err
	}

	n, err := store.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Knowledge base %s holds %d chunks\n", cfg.DB, n)

	return nil
}
