package portfolio

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("portfolio", flag.ContinueOnError), nil,
		[]string{"API_KEY=secret", "TELEGRAM_TOKEN=t", "TELEGRAM_CHAT_ID=42"})
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, []string{"https://portfolio-v2-pearl-one.vercel.app", "https://www.yuribarsotti.tech"}, cfg.AllowedOrigins)
	assert.Equal(t, "./prompts/system_prompt.txt", cfg.SystemPromptFile)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Model)
	assert.InDelta(t, 0.5, cfg.Temperature, 1e-9)
	assert.Equal(t, int64(150), cfg.MaxTokens)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 3, cfg.RetrieverK)
	assert.InDelta(t, 0.5, cfg.RetrieverThreshold, 1e-9)
	assert.Equal(t, 12, cfg.RateLimit)
	assert.Equal(t, "42", cfg.TelegramChatID)
}

func TestParseConfig_Flags(t *testing.T) {
	cfg, err := ParseConfig(flag.NewFlagSet("portfolio", flag.ContinueOnError),
		[]string{"-allowed-origins", "http://localhost:3000, https://a.example", "-system-prompt", "p.txt"},
		[]string{"API_KEY=k"})
	require.NoError(t, err)

	assert.Equal(t, []string{"http://localhost:3000", "https://a.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "p.txt", cfg.SystemPromptFile)
}

func TestParseConfig_RequiresAPIKey(t *testing.T) {
	_, err := ParseConfig(flag.NewFlagSet("portfolio", flag.ContinueOnError), nil, []string{})
	require.ErrorContains(t, err, "API_KEY")
}
