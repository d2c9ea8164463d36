package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates the service is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConnectionFailed indicates a failed connection to a service.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeRateLimited indicates the caller is rate limited, locally or by the provider.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeCircuitOpen indicates the circuit for the resource is open and the
	// call was rejected without being attempted.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeInvalidAudio indicates the audio payload failed validation before upload.
	ErrCodeInvalidAudio ErrorCode = "INVALID_AUDIO"
)

// Authentication errors
const (
	// ErrCodeUnauthorized indicates the provider rejected the credential.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeForbidden indicates the credential lacks permission for the operation.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
)

// Provider errors
const (
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeMalformedResponse indicates a provider response that could not be parsed.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	// ErrCodeProviderRejected indicates the provider processed the request and
	// refused it; the same input will not succeed on retry.
	ErrCodeProviderRejected ErrorCode = "PROVIDER_REJECTED"
)

// Injection errors
const (
	// ErrCodeInjectionFailed indicates text delivery into the target application failed.
	ErrCodeInjectionFailed ErrorCode = "INJECTION_FAILED"
	// ErrCodeUnsupportedText indicates the delivery strategy cannot represent the
	// text (e.g. non-ASCII characters through a key-event backend).
	ErrCodeUnsupportedText ErrorCode = "UNSUPPORTED_TEXT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
	ErrCodeCircuitOpen:        false,
	ErrCodeMalformedResponse:  false,
	ErrCodeProviderRejected:   false,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
