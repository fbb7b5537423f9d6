package apperror

import "net/http"

// Kinds are the machine-readable error categories returned to clients.
const (
	KindUnauthenticated        = "UNAUTHENTICATED"
	KindForbidden              = "FORBIDDEN"
	KindNotFound               = "NOT_FOUND"
	KindValidation             = "VALIDATION_ERROR"
	KindConflict               = "CONFLICT"
	KindSlotConflict           = "SLOT_CONFLICT"
	KindInvalidStateTransition = "INVALID_STATE_TRANSITION"
	KindCancellationWindow     = "CANCELLATION_WINDOW"
	KindDuplicateSchedule      = "DUPLICATE_SCHEDULE"
	KindRateLimited            = "RATE_LIMITED"
	KindInternal               = "INTERNAL"
)

// AppError is a custom error type that includes an HTTP status code and a machine-readable kind.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    string // Stable error category (e.g., SLOT_CONFLICT)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy of e carrying a more specific message.
// errors.Is(copy, e) still holds.
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: message,
		Err:     e,
	}
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common constructors.

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, KindNotFound, message)
}

func Validation(message string) *AppError {
	return New(http.StatusBadRequest, KindValidation, message)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, KindForbidden, message)
}
