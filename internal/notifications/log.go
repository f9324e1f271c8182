package notifications

import (
	"context"
	"log/slog"

	"premiere/internal/logging"
)

// Log writes messages to the application log instead of a chat service.
type Log struct {
	logger *slog.Logger
}

// NewLog builds a log-only deliverer.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{logger: logger}
}

// Name identifies the transport.
func (l *Log) Name() string { return "log" }

// Deliver logs the plain-text form of message.
func (l *Log) Deliver(_ context.Context, userID, message string) error {
	text, _, err := PlainText(message)
	if err != nil {
		text = message
	}
	l.logger.Info("notification",
		logging.String(logging.FieldUserID, userID),
		logging.String("message", text),
	)
	return nil
}
