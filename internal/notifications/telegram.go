package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Telegram sends messages through the Bot API sendMessage method. The user id
// is used as the chat id.
type Telegram struct {
	transport
	endpoint string
}

// NewTelegram builds a Telegram deliverer for the bot identified by token.
func NewTelegram(baseURL, token string, opts ...Option) *Telegram {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Telegram{
		transport: newTransport(opts),
		endpoint:  fmt.Sprintf("%s/bot%s/sendMessage", baseURL, strings.TrimSpace(token)),
	}
}

// Name identifies the transport.
func (t *Telegram) Name() string { return "telegram" }

type telegramRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Deliver sends message as HTML to the chat userID.
func (t *Telegram) Deliver(ctx context.Context, userID, message string) error {
	body, err := json.Marshal(telegramRequest{ChatID: userID, Text: message, ParseMode: "HTML"})
	if err != nil {
		return fmt.Errorf("encode telegram request: %w", err)
	}
	return t.policy.do(ctx, t.Name(), func() error {
		return t.send(ctx, body)
	})
}

func (t *Telegram) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &parsed)
	if resp.StatusCode >= 300 || !parsed.OK {
		status := resp.StatusCode
		if status < 300 && parsed.ErrorCode != 0 {
			status = parsed.ErrorCode
		}
		description := strings.TrimSpace(parsed.Description)
		if description == "" {
			description = strings.TrimSpace(string(raw))
		}
		return &statusError{Transport: "telegram", Status: status, Body: description}
	}
	return nil
}
