package utils

import (
	"errors"
	"fmt"
)

// Failure kinds of the compose/send pipeline. Test with errors.Is.
var (
	ErrEncoding             = errors.New("encoding error")
	ErrNoDraft              = errors.New("no draft")
	ErrThreadNotFound       = errors.New("thread not found")
	ErrAttachmentRead       = errors.New("attachment read error")
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrTransport            = errors.New("transport error")
)

// AppError represents a custom application error with context
type AppError struct {
	Kind    error                  // One of the Err* kinds above
	Message string                 // User-friendly message
	Err     error                  // Underlying error
	Context map[string]interface{} // Additional context
}

// NewAppError creates a new AppError
func NewAppError(kind error, message string, err error) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
		Context: make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	e.Context[key] = value
	return e
}

// Common error constructors
func EncodingError(message string, err error) *AppError {
	return NewAppError(ErrEncoding, message, err)
}

func NoDraftError(message string, err error) *AppError {
	return NewAppError(ErrNoDraft, message, err)
}

func ThreadNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrThreadNotFound, message, err)
}

func AttachmentReadError(message string, err error) *AppError {
	return NewAppError(ErrAttachmentRead, message, err)
}

func UnsupportedImageTypeError(message string, err error) *AppError {
	return NewAppError(ErrUnsupportedImageType, message, err)
}

// TransportError keeps the delivery agent's diagnostic output verbatim.
func TransportError(message string, stderr string, err error) *AppError {
	return NewAppError(ErrTransport, message, err).WithContext("stderr", stderr)
}

// Diagnostic returns the captured stderr of a TransportError, or the error
// text for anything else.
func Diagnostic(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if stderr, ok := appErr.Context["stderr"].(string); ok && stderr != "" {
			return stderr
		}
	}
	return err.Error()
}
