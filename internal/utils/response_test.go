package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"invitide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromError(t *testing.T) {
	cases := map[error]int{
		models.ErrUnauthenticated:                          http.StatusUnauthorized,
		fmt.Errorf("event x: %w", models.ErrForbidden):     http.StatusForbidden,
		fmt.Errorf("event x: %w", models.ErrNotFound):      http.StatusNotFound,
		fmt.Errorf("bad date: %w", models.ErrInvalidInput): http.StatusBadRequest,
		models.ErrConflict:                                 http.StatusConflict,
		errors.New("boom"):                                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFromError(err), err.Error())
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, "Failed to delete event", fmt.Errorf("event e1: %w", models.ErrForbidden))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Failed to delete event", body.Message)
	assert.Contains(t, body.Error, "not allowed")
}
