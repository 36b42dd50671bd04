package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Configuration errors: fatal for the affected file, never retried.
var (
	ErrStrategyNotImplemented = errors.New("strategy not implemented")
	ErrRouteNotImplemented    = errors.New("no route for strategy and media class")
	ErrUnsupportedMediaType   = errors.New("unsupported media type")
)

// Backend errors: fatal for the affected file, siblings keep running.
var (
	ErrConversionFailed    = errors.New("document conversion failed")
	ErrRasterizationFailed = errors.New("pdf rasterization failed")
	ErrTranscriptionFailed = errors.New("image transcription failed")
	ErrNoToolCallMade      = errors.New("no tool call in model response")
	ErrToolNameMismatch    = errors.New("model invoked a different tool")
	ErrSchemaValidation    = errors.New("tool arguments do not satisfy contract")
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
