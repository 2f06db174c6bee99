package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("scene")

	assert.Equal(t, ErrCodeResourceNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPCode)
	assert.Equal(t, "scene not found", err.Error())
}

func TestBusinessErrorHTTPMapping(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrCodeAccessDenied:     http.StatusForbidden,
		ErrCodeUnauthorized:     http.StatusUnauthorized,
		ErrCodeInvalidInput:     http.StatusBadRequest,
		ErrCodeNotConfigured:    http.StatusServiceUnavailable,
		ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
		ErrCodeDatabaseError:    http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, NewBusinessError(code, "x").HTTPCode, string(code))
	}
}

func TestGetAppErrorUnwrapsWrapped(t *testing.T) {
	inner := NewValidationError("message is required")
	wrapped := fmt.Errorf("chat: %w", inner)

	assert.True(t, IsAppError(wrapped))
	assert.Same(t, inner, GetAppError(wrapped))
}

func TestGetAppErrorWrapsPlainError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	appErr := GetAppError(cause)

	assert.Equal(t, ErrCodeInternalServer, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "system", appErr.Type.String())
}

func TestExternalErrorKeepsCause(t *testing.T) {
	cause := fmt.Errorf("quota exceeded")
	err := NewExternalError(ErrCodeGenerationFailed, "generation failed", cause)

	assert.Equal(t, http.StatusBadGateway, err.HTTPCode)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, "external", err.Type.String())
}
