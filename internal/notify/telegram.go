package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TimestampLayout formats interaction timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// TelegramOptions configures a Telegram notifier.
type TelegramOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// Now is the clock used for interaction timestamps.
	Now func() time.Time
}

// Telegram sends Markdown messages through the Bot API.
type Telegram struct {
	token  string
	chatID string
	opts   TelegramOptions
}

var _ Notifier = (*Telegram)(nil)

// NewTelegram creates a Telegram notifier for the bot token and chat.
func NewTelegram(token, chatID string, optFns ...func(o *TelegramOptions)) *Telegram {
	opts := TelegramOptions{
		BaseURL:    "https://api.telegram.org",
		HTTPClient: defaultClient(),
		Now:        time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Telegram{token: token, chatID: chatID, opts: opts}
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends text with Markdown parse mode.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	if t.token == "" || t.chatID == "" {
		return fmt.Errorf("telegram: %w", ErrNotConfigured)
	}

	payload := map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	url := strings.TrimRight(t.opts.BaseURL, "/") + "/bot" + t.token + "/sendMessage"

	var resp telegramResponse
	if err := postJSON(ctx, t.opts.HTTPClient, url, payload, &resp); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	if !resp.OK {
		return fmt.Errorf("telegram: %s", resp.Description)
	}

	return nil
}

// LogInteraction sends a formatted record of one user input and model output.
func (t *Telegram) LogInteraction(ctx context.Context, input, output string) error {
	return t.Notify(ctx, FormatInteraction(input, output, t.opts.Now()))
}

// FormatInteraction renders the Markdown interaction record.
func FormatInteraction(input, output string, ts time.Time) string {
	return "🧠 *IA Interaction*\n" +
		"🕒 *Time*: `" + ts.Format(TimestampLayout) + "`\n\n" +
		"👤 *Input*:\n`" + input + "`\n\n" +
		"🤖 *Output*:\n`" + output + "`"
}
