package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"premiere/internal/config"
	"premiere/internal/logging"
	"premiere/internal/services"
)

const userAgent = "Premiere-Go/0.1.0"

// Deliverer sends a message to a single user.
type Deliverer interface {
	Deliver(ctx context.Context, userID, message string) error
	Name() string
}

// New builds the deliverer selected by cfg.Notifications.Channel.
func New(cfg *config.Config, logger *slog.Logger) (Deliverer, error) {
	logger = logging.NewComponentLogger(logger, "notifications")
	n := cfg.Notifications
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []Option{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithRetry(n.RetryAttempts, time.Second),
		WithLogger(logger),
	}

	switch strings.ToLower(strings.TrimSpace(n.Channel)) {
	case "telegram":
		return NewTelegram(n.TelegramBaseURL, n.TelegramToken, opts...), nil
	case "ntfy":
		return NewNtfy(n.NtfyServer, n.NtfyTopicPrefix, opts...), nil
	case "log", "":
		return NewLog(logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "notifications", "new", fmt.Sprintf("unsupported channel %q", n.Channel), nil)
	}
}

// statusError reports a non-success HTTP response from a transport.
type statusError struct {
	Transport string
	Status    int
	Body      string
}

func (e *statusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Transport, e.Status)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Transport, e.Status, e.Body)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.Status == http.StatusTooManyRequests || se.Status >= 500
	}
	return true
}

// Option configures an HTTP transport.
type Option func(*transport)

// transport holds the settings shared by HTTP deliverers.
type transport struct {
	client *http.Client
	policy retryPolicy
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithRetry sets the attempt count and initial backoff.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(t *transport) {
		if attempts > 0 {
			t.policy.attempts = uint(attempts)
		}
		if delay >= 0 {
			t.policy.delay = delay
		}
	}
}

// WithLogger attaches a logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.policy.logger = logger
		}
	}
}

func newTransport(opts []Option) transport {
	t := transport{
		client: &http.Client{Timeout: 10 * time.Second},
		policy: retryPolicy{attempts: 3, delay: time.Second, logger: logging.NewNop()},
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

type retryPolicy struct {
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// do runs send until it succeeds, fails permanently, or attempts run out. The
// returned error is the last transport error, tagged ErrDelivery.
func (p retryPolicy) do(ctx context.Context, transport string, send func() error) error {
	attempts := p.attempts
	if attempts == 0 {
		attempts = 1
	}
	logger := p.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var lastErr error
	err := retry.Do(
		func() error {
			lastErr = send()
			if lastErr != nil && !retryable(lastErr) {
				return retry.Unrecoverable(lastErr)
			}
			return lastErr
		},
		retry.Attempts(attempts),
		retry.Delay(p.delay),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("retrying delivery",
				logging.String("transport", transport),
				logging.Int("attempt", int(n)+1),
				logging.Error(err),
			)
		}),
	)
	if err == nil {
		return nil
	}
	if lastErr != nil && ctx.Err() == nil {
		err = lastErr
	}
	return services.Wrap(services.ErrDelivery, transport, "deliver", "", err)
}
