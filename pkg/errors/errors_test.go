package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("connection reset"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("who"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("dup"), CodeConflict, http.StatusConflict},
		{"too many requests", TooManyRequests("slow down"), CodeTooManyRequests, http.StatusTooManyRequests},
		{"internal", Internal("oops", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("late"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", UnavailableMessage("try later", cause), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.status)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Technician", "t-1")

	if err.Message != "Technician not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "t-1" || err.Details["resource"] != "Technician" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestWithDetails_Merges(t *testing.T) {
	err := Unauthorized("sign in").WithDetails(map[string]any{"redirect": "/login"})
	err = err.WithDetails(map[string]any{"reason": "expired"})

	if err.Details["redirect"] != "/login" || err.Details["reason"] != "expired" {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Service")
	if AsAppError(appErr) != appErr {
		t.Error("AsAppError() should return the same AppError")
	}

	wrapped := fmt.Errorf("loading: %w", appErr)
	if !IsAppError(wrapped) || AsAppError(wrapped) != appErr {
		t.Error("AsAppError() should unwrap wrapped AppErrors")
	}

	regular := errors.New("plain")
	result := AsAppError(regular)
	if result.Code != CodeInternal || !errors.Is(result, regular) {
		t.Errorf("expected internal error wrapping the original, got %v", result)
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(NotFoundWithID("Booking", "b-9").ToJSON())

	for _, want := range []string{`"code":"NOT_FOUND"`, `"message":"Booking not found"`, `"id":"b-9"`} {
		if !strings.Contains(body, want) {
			t.Errorf("ToJSON() = %s, missing %s", body, want)
		}
	}
}
