package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{400, false},
		{401, false},
		{403, false},
		{404, false},
		{501, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableStatusCode(tt.code))
		})
	}
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, TypeForStatus(429))
	assert.Equal(t, ErrorTypeAuth, TypeForStatus(401))
	assert.Equal(t, ErrorTypeAuth, TypeForStatus(403))
	assert.Equal(t, ErrorTypeNotFound, TypeForStatus(404))
	assert.Equal(t, ErrorTypeServerError, TypeForStatus(503))
	assert.Equal(t, ErrorTypeUnknown, TypeForStatus(418))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeNetwork))
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.True(t, IsRetryable(ErrorTypeServerError))
	assert.False(t, IsRetryable(ErrorTypeParsing))
	assert.False(t, IsRetryable(ErrorTypeConfig))
	assert.False(t, IsRetryable(ErrorTypeAuth))
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("fetch page: %w", Wrap(cause, ErrorTypeNetwork, 0, "network error"))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeNetwork, TypeOf(err))
	assert.Equal(t, "network error: network error", Wrap(cause, ErrorTypeNetwork, 0, "network error").Error())
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
}

func TestConfigError(t *testing.T) {
	err := fmt.Errorf("load: %w", NewConfigError(errors.New("invalid start date")))

	assert.True(t, IsConfig(err))
	assert.Contains(t, err.Error(), "invalid start date")
	assert.False(t, IsConfig(New(ErrorTypeParsing, 200, "bad json")))
}
