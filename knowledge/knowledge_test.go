package knowledge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
)

type staticLoader []Document

func (l staticLoader) Load(context.Context) ([]Document, error) { return l, nil }

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float64, error) {
	return nil, errors.New("quota exceeded")
}

func newKnowledge(t *testing.T, docs ...Document) *Knowledge {
	t.Helper()

	k, err := New(NewInMemoryStore(), NewHashEmbedder(128), func(o *Options) {
		o.Loaders = []Loader{staticLoader(docs)}
	})
	require.NoError(t, err)
	require.NoError(t, k.Load(t.Context(), false))

	return k
}

func TestChunk(t *testing.T) {
	doc := Document{ID: "d", Content: strings.Repeat("word ", 50), Metadata: map[string]string{"lang": "en"}}

	chunks := Chunk(doc, 40, 10)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 40)
		assert.Equal(t, "en", c.Metadata["lang"])
		assert.Equal(t, "d#"+c.Metadata["chunk"], c.ID)
		assert.False(t, strings.HasPrefix(c.Content, " "), "chunk %d", i)
	}

	assert.Nil(t, Chunk(Document{ID: "e", Content: "   "}, 40, 10))

	single := Chunk(Document{ID: "s", Content: "short"}, 40, 10)
	require.Len(t, single, 1)
	assert.Equal(t, "s#0", single[0].ID)
	assert.NotContains(t, doc.Metadata, "chunk")
}

func TestKnowledge_Search(t *testing.T) {
	k := newKnowledge(t,
		Document{ID: "agno", Content: "Agno is a framework for building multi agent systems", Source: "docs"},
		Document{ID: "pasta", Content: "Carbonara uses eggs, pecorino and guanciale", Source: "recipes"},
	)

	docs, err := k.Search(t.Context(), "what is agno framework", 1, 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "agno#0", docs[0].ID)
	assert.Positive(t, docs[0].Score)

	none, err := k.Search(t.Context(), "what is agno framework", 5, 0.99)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = k.Search(t.Context(), "  ", 1, 0)
	require.Error(t, err)
}

func TestKnowledge_LoadSkipsPopulatedStore(t *testing.T) {
	store := NewInMemoryStore()
	loader := staticLoader{{ID: "a", Content: "alpha"}}

	k, err := New(store, NewHashEmbedder(16), func(o *Options) { o.Loaders = []Loader{loader} })
	require.NoError(t, err)

	require.NoError(t, k.Load(t.Context(), false))
	require.NoError(t, store.Upsert(t.Context(), []Document{{ID: "extra", Content: "x"}}, [][]float64{make([]float64, 16)}))
	require.NoError(t, k.Load(t.Context(), false))

	n, _ := store.Count(t.Context())
	assert.Equal(t, 2, n)

	require.NoError(t, k.Load(t.Context(), true))

	n, _ = store.Count(t.Context())
	assert.Equal(t, 1, n)
}

func TestKnowledge_EmbedError(t *testing.T) {
	k, err := New(NewInMemoryStore(), failingEmbedder{})
	require.NoError(t, err)

	err = k.Add(t.Context(), Document{ID: "a", Content: "alpha"})
	require.ErrorContains(t, err, "quota exceeded")

	_, err = New(NewInMemoryStore(), nil)
	require.ErrorIs(t, err, ErrNoEmbedder)
}

func TestKnowledge_NonPositiveBatchSize(t *testing.T) {
	for _, size := range []int{0, -4} {
		store := NewInMemoryStore()

		k, err := New(store, NewHashEmbedder(16), func(o *Options) { o.BatchSize = size })
		require.NoError(t, err)

		require.NoError(t, k.Add(t.Context(), Document{ID: "a", Content: "alpha"}, Document{ID: "b", Content: "beta"}))

		n, err := store.Count(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float64{1}, []float64{1, 2}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestURLLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>t</title><script>var x=1;</script></head>
<body><nav>menu</nav><h1>Agno</h1><p>Build   agents
fast.</p><footer>legal</footer></body></html>`))
		case "/intro.md":
			w.Header().Set("Content-Type", "text/markdown")
			_, _ = w.Write([]byte("# Intro\nAgno docs"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	docs, err := NewURLLoader(srv.URL+"/page", srv.URL+"/intro.md").Load(t.Context())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Agno\nBuild agents fast.", docs[0].Content)
	assert.Equal(t, srv.URL+"/page", docs[0].Source)
	assert.Equal(t, "# Intro\nAgno docs", docs[1].Content)

	_, err = NewURLLoader(srv.URL + "/missing").Load(t.Context())
	require.ErrorContains(t, err, "unexpected status")
}

func TestSearchTool(t *testing.T) {
	k := newKnowledge(t, Document{ID: "agno", Content: "Agno builds agents", Source: "docs"})
	st := NewSearchTool(k, func(o *SearchToolOptions) { o.Limit = 3 })

	assert.Equal(t, SearchToolName, st.Name())

	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "a"}, core.Content{}, nil, nil, core.RunContextOptions{})
	tc := core.NewToolContext(rc, "call-1")

	out, err := st.Call(tc, map[string]any{"query": "agno agents"})
	require.NoError(t, err)

	hits, ok := out.([]searchHit)
	require.True(t, ok)
	require.Len(t, hits, 1)
	assert.Equal(t, "docs", hits[0].Source)

	_, err = st.Call(tc, map[string]any{})
	require.Error(t, err)
}
