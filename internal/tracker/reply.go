package tracker

import (
	"log/slog"

	"premiere/internal/logging"
	"premiere/internal/services"
)

// Reply converts an operation result into the text shown to a user. Errors
// are logged under operation and replaced with a safe message.
func Reply(logger *slog.Logger, operation, text string, err error) string {
	if err == nil {
		return text
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger.Error("operation failed", logging.Operation(operation), logging.Error(err))
	return services.FailureMessage(err)
}
