package models

import (
	"errors"
	"fmt"
)

// ErrorKind 错误分类
type ErrorKind string

const (
	ErrUnsupportedFormat      ErrorKind = "UnsupportedFormat"
	ErrCorruptDocument        ErrorKind = "CorruptDocument"
	ErrConversionTimeout      ErrorKind = "ConversionTimeout"
	ErrOCRUnavailable         ErrorKind = "OCRUnavailable"
	ErrMetadataUnavailable    ErrorKind = "MetadataUnavailable"
	ErrExtractionTimeout      ErrorKind = "ExtractionTimeout"
	ErrInternalExtraction     ErrorKind = "InternalExtractionError"
	ErrBatchSizeExceeded      ErrorKind = "BatchSizeExceeded"
	ErrEmptyBatch             ErrorKind = "EmptyBatch"
)

// ExtractionError carries an error kind through the pipeline so the
// coordinator can normalize it into a failure result.
type ExtractionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewError creates an ExtractionError with the given kind.
func NewError(kind ErrorKind, message string) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, message string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind and message from err. Errors outside the
// taxonomy map to InternalExtractionError.
func KindOf(err error) (ErrorKind, string) {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind, ee.Message
	}
	if err == nil {
		return ErrInternalExtraction, "unknown error"
	}
	return ErrInternalExtraction, err.Error()
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind == kind
	}
	return false
}
