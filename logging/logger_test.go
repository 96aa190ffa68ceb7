package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer

	logger, closer := New(Config{Level: "debug", Format: "json", Output: &buf})
	defer closer.Close()

	logger.With("component", "runner").Info("run.start", "session_id", "s1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run.start", entry["msg"])
	assert.Equal(t, "runner", entry["component"])
	assert.Equal(t, "s1", entry["session_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger, _ := New(Config{Level: "warn", Format: "text", Output: &buf})
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closer := New(Config{Level: "info", File: path, MaxSizeMB: 1})
	logger.Info("hello")
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NoOpLogger{}
	assert.NotPanics(t, func() { l.Error("ignored", "k", "v") })
}
