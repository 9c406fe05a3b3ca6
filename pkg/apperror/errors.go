package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Transaction Structure (LED 001-004) ----

func ErrMissingField(field string) *AppError {
	return New("LED_001", fmt.Sprintf("Required field '%s' is missing", field), http.StatusBadRequest)
}

func ErrInvalidType(field, want string) *AppError {
	return New("LED_002", fmt.Sprintf("Field '%s' is invalid, must be %s", field, want), http.StatusBadRequest)
}

func ErrMalformedTimestamp() *AppError {
	return New("LED_003", "Timestamp format incorrect, use YYYY-MM-DDTHH:MM:SSZ", http.StatusBadRequest)
}

func ErrFutureTimestamp() *AppError {
	return New("LED_004", "Transaction timestamp is in the future", http.StatusBadRequest)
}

// ---- Balance Invariants (LED 005-006) ----

func ErrInsufficientTotalBalance() *AppError {
	return New("LED_005", "Transaction exceeds total available point balance", http.StatusPaymentRequired)
}

func ErrInsufficientPayerBalance() *AppError {
	return New("LED_006", "Transaction exceeds available points to spend for this payer", http.StatusPaymentRequired)
}

// ---- Add & Spend Preconditions (LED 007-009) ----

func ErrNonPositivePoints() *AppError {
	return New("LED_007", "Added points must be a positive amount", http.StatusBadRequest)
}

func ErrNonPositiveSpend() *AppError {
	return New("LED_008", "Must spend a positive number of points", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("LED_009", "Requested spend exceeds available point balance", http.StatusPaymentRequired)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a 400 for request bodies that cannot be decoded.
func Validation(message string) *AppError {
	return New("LED_002", message, http.StatusBadRequest)
}
