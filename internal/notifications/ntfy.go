package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ntfy publishes messages to a per-user topic on an ntfy server.
type Ntfy struct {
	transport
	server string
	prefix string
}

// NewNtfy builds an ntfy deliverer. Each user receives messages on the topic
// prefix+userID.
func NewNtfy(server, prefix string, opts ...Option) *Ntfy {
	return &Ntfy{
		transport: newTransport(opts),
		server:    strings.TrimRight(strings.TrimSpace(server), "/"),
		prefix:    strings.TrimSpace(prefix),
	}
}

// Name identifies the transport.
func (n *Ntfy) Name() string { return "ntfy" }

// Topic returns the topic used for userID.
func (n *Ntfy) Topic(userID string) string {
	return n.prefix + strings.TrimSpace(userID)
}

// Deliver converts message to plain text and publishes it. The first line
// becomes the notification title and the cover link, if any, an attachment.
func (n *Ntfy) Deliver(ctx context.Context, userID, message string) error {
	text, links, err := PlainText(message)
	if err != nil {
		return err
	}
	title, body := splitHeadline(text)
	attach := ""
	if len(links) > 0 {
		attach = links[len(links)-1]
	}
	endpoint := n.server + "/" + n.Topic(userID)
	return n.policy.do(ctx, n.Name(), func() error {
		return n.send(ctx, endpoint, title, body, attach)
	})
}

func (n *Ntfy) send(ctx context.Context, endpoint, title, body, attach string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Tags", "premiere")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if attach != "" {
		req.Header.Set("Attach", attach)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{Transport: "ntfy", Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func splitHeadline(text string) (string, string) {
	head, rest, found := strings.Cut(text, "\n")
	if !found {
		return "", text
	}
	return strings.TrimSpace(head), strings.TrimSpace(rest)
}
