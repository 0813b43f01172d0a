package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStatus_Classification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		write  bool
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, false, ErrAuth},
		{"forbidden", http.StatusForbidden, true, ErrAuth},
		{"not found", http.StatusNotFound, false, ErrNotFound},
		{"bad request", http.StatusBadRequest, true, ErrValidation},
		{"unprocessable entity", http.StatusUnprocessableEntity, false, ErrValidation},
		{"server error on write", http.StatusInternalServerError, true, ErrPersistence},
		{"server error on read", http.StatusInternalServerError, false, ErrTransmission},
		{"bad gateway on read", http.StatusBadGateway, false, ErrTransmission},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromStatus("briefstore", tc.status, "detail", tc.write)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFromStatus_CarriesContext(t *testing.T) {
	err := FromStatus("assistant", http.StatusNotFound, "Conversation not found", false)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "assistant", apiErr.Service)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Conversation not found", apiErr.Body)
	assert.Contains(t, err.Error(), "status 404")
}

func TestTransport(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Transport("briefstore", cause)

	assert.ErrorIs(t, err, ErrTransmission)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "briefstore")
}
