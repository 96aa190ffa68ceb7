package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInteraction(t *testing.T) {
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	got := FormatInteraction("hi", "hello", ts)

	assert.Equal(t, "🧠 *IA Interaction*\n🕒 *Time*: `2025-03-04 05:06:07`\n\n👤 *Input*:\n`hi`\n\n🤖 *Output*:\n`hello`", got)
}

func TestTelegram_LogInteraction(t *testing.T) {
	var payload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "42", func(o *TelegramOptions) {
		o.BaseURL = srv.URL
		o.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	})

	require.NoError(t, tg.LogInteraction(t.Context(), "q", "a"))
	assert.Equal(t, "42", payload["chat_id"])
	assert.Equal(t, "Markdown", payload["parse_mode"])
	assert.Contains(t, payload["text"], "`2025-01-01 00:00:00`")
}

func TestTelegram_Errors(t *testing.T) {
	require.ErrorIs(t, NewTelegram("", "1").Notify(t.Context(), "x"), ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	err := NewTelegram("T", "1", func(o *TelegramOptions) { o.BaseURL = srv.URL }).Notify(t.Context(), "x")
	require.ErrorContains(t, err, "chat not found")
}

func TestSlack_Notify(t *testing.T) {
	var got map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	require.NoError(t, NewSlack(srv.URL, nil).Notify(t.Context(), "deployed"))
	assert.Equal(t, map[string]string{"text": "deployed"}, got)

	require.ErrorIs(t, NewSlack("", nil).Notify(t.Context(), "x"), ErrNotConfigured)
}

func TestWebhook_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"received": in["name"] + ": " + in["message"]})
	}))
	defer srv.Close()

	out, err := NewWebhook(srv.URL, "bot", nil).Send(t.Context(), "Ana", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Ana: hello", out["received"])
}

func TestWebhook_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, "bot", nil).Notify(t.Context(), "x")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
}
