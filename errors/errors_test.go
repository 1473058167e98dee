package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew_RetryableByCode(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
	}{
		{ErrCodeTimeout, true},
		{ErrCodeQueueFull, true},
		{ErrCodeExternalService, true},
		{ErrCodeNotFound, false},
		{ErrCodeProviderUnavailable, false},
		{ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x", http.StatusTeapot)
			if err.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", err.Retryable, tt.retryable)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("job", "abc")
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected 404, got %d", err.HTTPStatus)
	}
	if err.Details["id"] != "abc" {
		t.Errorf("expected id=abc, got %v", err.Details["id"])
	}
	if _, ok := NotFound("job", "").Details["id"]; ok {
		t.Error("expected no id detail for empty id")
	}
}

func TestQueueFull(t *testing.T) {
	err := QueueFull(8)
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
	if !err.Retryable {
		t.Error("queue full should be retryable")
	}
	if err.Details["capacity"] != 8 {
		t.Errorf("unexpected capacity detail %v", err.Details["capacity"])
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := ExternalServiceError("whisper", fmt.Errorf("boom"))
	want := "EXTERNAL_SERVICE_ERROR: whisper request failed (cause: boom)"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if Conflict("done").Error() != "CONFLICT: done" {
		t.Errorf("unexpected message %q", Conflict("done").Error())
	}
}

func TestAppError_UnwrapAndIs(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	wrapped := fmt.Errorf("calling provider: %w", ExternalServiceError("assemblyai", cause))

	if !stderrors.Is(wrapped, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !stderrors.Is(wrapped, &AppError{Code: ErrCodeExternalService}) {
		t.Error("expected errors.Is to match by code")
	}
	if !HasCode(wrapped, ErrCodeExternalService) {
		t.Error("expected HasCode to match")
	}
	if HasCode(cause, ErrCodeExternalService) {
		t.Error("plain error should not carry a code")
	}
}

func TestToResponse(t *testing.T) {
	resp := MissingField("question").ToResponse()
	if resp.Error.Code != ErrCodeMissingField {
		t.Errorf("unexpected code %s", resp.Error.Code)
	}
	if resp.Error.Details["field"] != "question" {
		t.Errorf("unexpected details %v", resp.Error.Details)
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain error should not convert")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", Timeout("poll")))
	if !ok || appErr.Code != ErrCodeTimeout {
		t.Fatalf("expected timeout app error, got %v", appErr)
	}
	if appErr.WithDetail("attempt", 3).Details["attempt"] != 3 {
		t.Error("WithDetail did not set value")
	}
}
