package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := NewAppError("CONVERSION_ERROR", "gotenberg returned 500", ErrConversionFailed)

	assert.True(t, errors.Is(err, ErrConversionFailed))
	assert.Contains(t, err.Error(), "CONVERSION_ERROR")
	assert.Contains(t, err.Error(), "gotenberg returned 500")

	var appErr *AppError
	assert.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONVERSION_ERROR", appErr.Code)
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError("VALIDATION", "bad field", nil)
	assert.Equal(t, "VALIDATION: bad field", err.Error())
	assert.Nil(t, errors.Unwrap(err))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "context"))

	wrapped := WrapError(ErrRasterizationFailed, "page 3")
	assert.True(t, errors.Is(wrapped, ErrRasterizationFailed))
	assert.Contains(t, wrapped.Error(), "page 3")
}
