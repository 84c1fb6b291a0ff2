package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
	}{
		{name: "invalid event is terminal", err: NewInvalidEventError("params.doctorId is required"), wantRetries: 0},
		{name: "gateway not configured is terminal", err: NewGatewayNotConfiguredError("gateway.token"), wantRetries: 0},
		{name: "query failure retries", err: NewReminderQueryFailedError(stderrors.New("timeout")), wantRetries: 3},
		{name: "gateway request retries twice", err: NewGatewayRequestFailedError(stderrors.New("503")), wantRetries: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("sweep: %w", NewReminderUpdateFailedError("rec-1", cause))

	assert.True(t, Is(err, cause))
	assert.Equal(t, string(ErrCodeReminderUpdateFailed), CodeOf(err))
	assert.Equal(t, string(ErrCodeInternal), CodeOf(cause))

	stdErr := AsStandardError(err)
	require.NotNil(t, stdErr)
	assert.Equal(t, "rec-1", stdErr.Metadata["recordId"])
	assert.Contains(t, stdErr.Error(), "connection reset")
}

func TestAsStandardError_WrapsPlainErrors(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	stdErr := AsStandardError(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "GATEWAY", GetErrorCategory(ErrCodeGatewayRequestFailed))
	assert.Equal(t, "PUSH", GetErrorCategory(ErrCodePushPublishFailed))
	assert.Equal(t, "STORE", GetErrorCategory(ErrCodeReminderQueryFailed))
	assert.Equal(t, "STORE", GetErrorCategory(ErrCodeDoctorLookupFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidEvent))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeTimeout))
}
