// internal/common/errors/errors_test.go
package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{CodeValidation, 400},
		{CodeAuthentication, 401},
		{CodeAuthorization, 403},
		{CodePendingAccount, 403},
		{CodeNotFound, 404},
		{CodeConflict, 409},
		{CodeQuotaExceeded, 429},
		{CodeUpstream, 502},
		{CodeInternal, 500},
		{ErrorCode("SOMETHING_ELSE"), 500},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestErrorString(t *testing.T) {
	err := NewValidationError("bad input", "field x is missing")
	assert.Equal(t, "VALIDATION_ERROR: bad input (field x is missing)", err.Error())

	bare := NewNotFoundError("job")
	assert.Equal(t, "NOT_FOUND: job not found", bare.Error())
}

func TestUpstreamErrorsAreRetryable(t *testing.T) {
	err := NewUpstreamError("provider unreachable", fmt.Errorf("dial tcp: refused"))
	assert.True(t, err.Retryable)
	assert.Equal(t, "dial tcp: refused", err.Details)
	assert.Equal(t, 3, GetRetryCount(err.Code))

	assert.False(t, NewInternalError("boom", nil).Retryable)
	assert.Equal(t, 0, GetRetryCount(CodeInternal))
}

func TestWithMetadata(t *testing.T) {
	err := NewAuthenticationError("token rejected").
		WithMetadata("status", 401).
		WithMetadata("provider", "keycloak")

	require.NotNil(t, err.Metadata)
	assert.Equal(t, 401, err.Metadata["status"])
	assert.Equal(t, "keycloak", err.Metadata["provider"])
}

func TestTimestampSet(t *testing.T) {
	err := NewConflictError("already queued")
	assert.False(t, err.Timestamp.IsZero())
}
