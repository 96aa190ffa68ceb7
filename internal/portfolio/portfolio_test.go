package portfolio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/knowledge"
	"github.com/yuribarsotti/agentlab/model"
)

type staticRetriever []knowledge.Document

func (s staticRetriever) Retrieve(context.Context, string) ([]knowledge.Document, error) {
	return s, nil
}

type mockAnswerer struct{ mock.Mock }

func (m *mockAnswerer) Answer(ctx context.Context, query string) (string, error) {
	args := m.Called(ctx, query)
	return args.String(0), args.Error(1)
}

type mockInteractions struct{ mock.Mock }

func (m *mockInteractions) LogInteraction(ctx context.Context, input, output string) error {
	return m.Called(ctx, input, output).Error(0)
}

func TestChain_Answer(t *testing.T) {
	llm := model.NewMockModel("gpt")
	llm.AddResponse("Who is Yuri?", "A developer.")

	chain := NewChain(staticRetriever{{Content: "Yuri writes Go."}, {Content: "Yuri lives in Brazil."}}, llm, "Answer using:\n{context}\n")

	out, err := chain.Answer(t.Context(), "Who is Yuri?")
	require.NoError(t, err)
	assert.Equal(t, "A developer.", out)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Answer using:\nYuri writes Go.\n\nYuri lives in Brazil.", reqs[0].Instructions)
}

func TestLoadSystemPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  You are Yuri's assistant. {context}\n"), 0o600))

	got, err := LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "You are Yuri's assistant. {context}", got)

	_, err = LoadSystemPrompt(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func newRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}

	return req
}

func TestChat_Success(t *testing.T) {
	ans := &mockAnswerer{}
	ans.On("Answer", mock.Anything, "hi").Return("hello", nil)

	logs := &mockInteractions{}
	logs.On("LogInteraction", mock.Anything, "hi", "hello").Return(errors.New("telegram down"))

	srv := NewServer(ans, func(o *Options) {
		o.APIKey = "secret"
		o.Interactions = logs
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newRequest(`{"query":"hi"}`, "secret"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"hello"}`, rec.Body.String())
	ans.AssertExpectations(t)
	logs.AssertExpectations(t)
}

func TestChat_Unauthorized(t *testing.T) {
	ans := &mockAnswerer{}
	srv := NewServer(ans, func(o *Options) { o.APIKey = "secret" })

	for _, key := range []string{"", "wrong"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, newRequest(`{"query":"hi"}`, key))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"detail":"Token?"}`, rec.Body.String())
	}

	ans.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
}

func TestChat_RateLimit(t *testing.T) {
	ans := &mockAnswerer{}
	ans.On("Answer", mock.Anything, "q").Return("a", nil)

	srv := NewServer(ans, func(o *Options) { o.APIKey = "k" })
	h := srv.Handler()

	for range 12 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(`{"query":"q"}`, "k"))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, newRequest(`{"query":"q"}`, "k"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"detail":"Rate limit exceeded"}`, rec.Body.String())

	other := newRequest(`{"query":"q"}`, "k")
	other.RemoteAddr = "203.0.113.9:1234"

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestChat_RateLimitFixedWindow(t *testing.T) {
	ans := &mockAnswerer{}
	ans.On("Answer", mock.Anything, "q").Return("a", nil)

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	srv := NewServer(ans, func(o *Options) {
		o.APIKey = "k"
		o.Now = clock.Now
	})
	h := srv.Handler()

	send := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, newRequest(`{"query":"q"}`, "k"))

		return rec.Code
	}

	for range 12 {
		require.Equal(t, http.StatusOK, send())
	}

	// Same window.
	clock.Advance(10 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, send())

	clock.Advance(49 * time.Second)
	assert.Equal(t, http.StatusTooManyRequests, send())

	clock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, send())
	ans.AssertNumberOfCalls(t, "Answer", 13)
}

func TestChat_RateWindowsEvicted(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	srv := NewServer(&mockAnswerer{}, func(o *Options) { o.Now = clock.Now })

	for _, addr := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		require.True(t, srv.allow(addr))
	}

	require.Len(t, srv.windows, 3)

	clock.Advance(2 * time.Minute)
	require.True(t, srv.allow("198.51.100.4"))
	assert.Len(t, srv.windows, 1)
}

func TestChat_EmptyQueryForwarded(t *testing.T) {
	ans := &mockAnswerer{}
	ans.On("Answer", mock.Anything, "").Return("Ask me anything.", nil)

	srv := NewServer(ans, func(o *Options) { o.APIKey = "k" })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newRequest(`{"query":""}`, "k"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Ask me anything."}`, rec.Body.String())
}

func TestChat_BadBodyAndAnswerError(t *testing.T) {
	ans := &mockAnswerer{}
	ans.On("Answer", mock.Anything, "boom").Return("", errors.New("model down"))

	srv := NewServer(ans, func(o *Options) { o.APIKey = "k" })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newRequest(`{"query":`, "k"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, newRequest(`{"query":"boom"}`, "k"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestCORS(t *testing.T) {
	srv := NewServer(&mockAnswerer{}, func(o *Options) {
		o.AllowedOrigins = []string{"https://www.yuribarsotti.tech"}
	})

	preflight := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	preflight.Header.Set("Origin", "https://www.yuribarsotti.tech")
	preflight.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://www.yuribarsotti.tech", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)

	preflight.Header.Set("Origin", "https://evil.example")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := newRequest(`{"query":"x"}`, "")
	req.Header.Set("Origin", "https://evil.example")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
