package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCode(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  CodeSuccess,
		http.StatusCreated:             CodeSuccess,
		http.StatusBadRequest:          CodeBadRequest,
		http.StatusUnauthorized:        CodeUnauthorized,
		http.StatusForbidden:           CodeForbidden,
		http.StatusNotFound:            CodeResourceNotFound,
		http.StatusConflict:            CodeStateConflict,
		http.StatusUnprocessableEntity: CodeUnprocessableEntity,
		http.StatusTooManyRequests:     CodeTooManyRequests,
		http.StatusInternalServerError: CodeInternalServerError,
		http.StatusBadGateway:          CodeUnknownError,
	}
	for status, want := range cases {
		assert.Equal(t, want, DefaultCode(status), "status %d", status)
	}
}

func TestNewFallsBackToDefaultCode(t *testing.T) {
	e := New(http.StatusNotFound, "", "missing")
	assert.Equal(t, CodeResourceNotFound, e.Code)

	e = New(http.StatusNotFound, CodeUserNotFound, "missing")
	assert.Equal(t, CodeUserNotFound, e.Code)
}

func TestAsThroughWrapping(t *testing.T) {
	base := errors.New("boom")
	wrapped := fmt.Errorf("service: %w", Internal("failed", base))

	ae, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
	assert.ErrorIs(t, wrapped, base)
	assert.True(t, Is(wrapped, CodeInternalServerError))
	assert.False(t, Is(base, CodeInternalServerError))
}

func TestValidationDetails(t *testing.T) {
	e := Validation("invalid input", map[string]string{"email": "must be a valid email"})
	assert.Equal(t, http.StatusUnprocessableEntity, e.Status)
	assert.Equal(t, "must be a valid email", e.Details["email"])
}
