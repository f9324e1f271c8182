package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProvider      = errors.New("metadata provider error")
	ErrStore         = errors.New("alert store error")
	ErrDelivery      = errors.New("notification delivery error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

const (
	// MessageUnexpected is shown to users when an operation fails for a reason
	// they cannot act on.
	MessageUnexpected = "Unexpected error occurred."
	// MessageStoreUnavailable is shown when alert state could not be read or written.
	MessageStoreUnavailable = "Unable to update alerts right now, please try again later."
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureMessage maps an operation error to the text a user should see.
func FailureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStore):
		return MessageStoreUnavailable
	case errors.Is(err, ErrValidation):
		return "Invalid request."
	case errors.Is(err, ErrNotFound):
		return "Title not found."
	default:
		return MessageUnexpected
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
