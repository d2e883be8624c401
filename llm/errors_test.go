package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadGateway, true},
		{http.StatusInternalServerError, true},
		{http.StatusUnauthorized, false},
		{http.StatusForbidden, false},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ClassifyHTTPError(tt.status, []byte("boom"))
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, !tt.transient, IsFatal(err))
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestClassifyHTTPError_TruncatesBody(t *testing.T) {
	body := make([]byte, 500)
	for i := range body {
		body[i] = 'x'
	}
	err := ClassifyHTTPError(http.StatusBadRequest, body)
	assert.Less(t, len(err.Error()), 260)
}

func TestErrorWrapping(t *testing.T) {
	base := errors.New("root cause")
	wrapped := fmt.Errorf("synthesize: %w", NewTransientError(base))

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsFatal(wrapped))
	assert.ErrorIs(t, wrapped, base)
}
