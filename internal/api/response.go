package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"premiere/internal/daemon"
	"premiere/internal/services"
)

// Envelope is the unified response body.
type Envelope struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries a machine-readable error code.
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func success(c echo.Context, status int, data any, message string) error {
	if message == "" {
		message = "Success"
	}
	return c.JSON(status, Envelope{
		Success: true,
		Code:    status,
		Message: message,
		Data:    data,
	})
}

func failure(c echo.Context, status int, code, message, details string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return c.JSON(status, Envelope{
		Success: false,
		Code:    status,
		Message: message,
		Error:   &ErrorInfo{Code: code, Details: details},
	})
}

// classify maps an operation error onto a status code and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, daemon.ErrCycleRunning):
		return http.StatusConflict, "CYCLE_RUNNING"
	case errors.Is(err, daemon.ErrNotRunning):
		return http.StatusServiceUnavailable, "DAEMON_STOPPED"
	case errors.Is(err, services.ErrStore):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, services.ErrProvider), errors.Is(err, services.ErrTimeout):
		return http.StatusBadGateway, "PROVIDER_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
