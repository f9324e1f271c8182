package services_test

import (
	"errors"
	"strings"
	"testing"

	"premiere/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProvider, "tmdb", "get episode", "request failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"tmdb", "get episode", "request failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureMessageMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "store", err: services.Wrap(services.ErrStore, "alerts", "insert", "", errors.New("locked")), want: services.MessageStoreUnavailable},
		{name: "provider", err: services.Wrap(services.ErrProvider, "tmdb", "search", "", nil), want: services.MessageUnexpected},
		{name: "validation", err: services.Wrap(services.ErrValidation, "api", "enable", "missing user", nil), want: "Invalid request."},
		{name: "plain", err: errors.New("other"), want: services.MessageUnexpected},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.FailureMessage(tc.err); got != tc.want {
				t.Fatalf("FailureMessage = %q, want %q", got, tc.want)
			}
		})
	}
}
