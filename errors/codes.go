package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors (retryable)
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	// ErrCodeQueueFull is returned when the dispatcher refuses new work.
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"
)

// Resource and input errors
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Provider and internal errors
const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeProviderUnavailable marks a provider that cannot be called at all,
	// usually because its credentials are not configured.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeInvalidResponse     ErrorCode = "INVALID_RESPONSE"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeQueueFull:          true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode reports whether the code describes a transient failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
