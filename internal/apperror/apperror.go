// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes in
// one place (handler/response.go) using errors.Is. Nothing outside the
// handler package should ever reason about HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap them (via AppError or fmt.Errorf %w) so callers can
// match with errors.Is regardless of how many layers added context.
var (
	ErrConfiguration = errors.New("configuration error")   // provider client config absent or malformed
	ErrAuthExchange  = errors.New("auth exchange failed")  // provider rejected the code exchange
	ErrNotLinked     = errors.New("not authenticated")     // no stored Google credential for this user
	ErrInvalidToken  = errors.New("invalid session token") // bearer token missing/expired/tampered
	ErrValidation    = errors.New("validation error")      // missing or empty request fields
	ErrExtraction    = errors.New("extraction incomplete") // OCR could not find the required fields
	ErrProvider      = errors.New("provider call failed")  // any downstream Google API failure
)

// AppError carries a human-readable message alongside the sentinel.
type AppError struct {
	Err     error  // sentinel (one of the vars above)
	Message string // human-readable error message
	Field   string // optional: request field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Configuration(message string) *AppError {
	return &AppError{Err: ErrConfiguration, Message: message}
}

func AuthExchange(message string) *AppError {
	return &AppError{Err: ErrAuthExchange, Message: message}
}

// NotLinked indicates the caller has a valid session with this backend but
// no stored Google credential, so calendar calls are impossible until they
// re-run the OAuth flow.
func NotLinked(userID string) *AppError {
	return &AppError{
		Err:     ErrNotLinked,
		Message: fmt.Sprintf("no Google credential stored for user %s; authenticate first", userID),
	}
}

func InvalidToken(message string) *AppError {
	return &AppError{Err: ErrInvalidToken, Message: message}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

func ExtractionIncomplete(message string) *AppError {
	return &AppError{Err: ErrExtraction, Message: message}
}

// Provider wraps a downstream Google API failure. The message shown to
// clients stays generic — raw provider errors can leak tokens and internal
// URLs. Log the underlying error at the call site instead.
func Provider(op string) *AppError {
	return &AppError{
		Err:     ErrProvider,
		Message: fmt.Sprintf("%s failed", op),
	}
}
