package service

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fitra/auth")

// Error kinds. A flow error matches at most one of these with errors.Is.
// Cancellation and hashing faults match none and surface as internal errors.
var (
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
	ErrStorage        = errors.New("storage failure")
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
)

// Oops codes attached to service errors.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeUserExists         = "USER_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeStorage            = "STORAGE_FAILED"
	CodeCancelled          = "REQUEST_CANCELLED"
	CodeHashFailed         = "HASH_FAILED"
)

// ValidationError names the first offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validationFailed(field, msg string) error {
	return oops.Code(CodeValidation).
		With("field", field).
		Wrap(&ValidationError{Field: field, Message: msg})
}

func storageFailed(op string, err error) error {
	return oops.Code(CodeStorage).
		With("op", op).
		Wrap(fmt.Errorf("%w: %w", ErrStorage, err))
}

func cancelled(op string, err error) error {
	return oops.Code(CodeCancelled).
		With("op", op).
		Wrap(err)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
