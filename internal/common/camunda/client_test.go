package camunda

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	apperrors "clinic-notify-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "broker unavailable", err: status.Error(codes.Unavailable, "no broker"), want: true},
		{name: "backpressure", err: status.Error(codes.ResourceExhausted, "busy"), want: true},
		{name: "deadline", err: status.Error(codes.DeadlineExceeded, "slow"), want: true},
		{name: "invalid bpmn", err: status.Error(codes.InvalidArgument, "parse error"), want: false},
		{name: "plain error", err: stderrors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableZeebeError(tt.err))
		})
	}
}

func TestMapZeebeError(t *testing.T) {
	err := mapZeebeError(status.Error(codes.DeadlineExceeded, "slow"), "deploy x.bpmn")
	assert.Equal(t, string(apperrors.ErrCodeTimeout), apperrors.CodeOf(err))

	err = mapZeebeError(status.Error(codes.InvalidArgument, "bad"), "deploy x.bpmn")
	assert.Equal(t, string(apperrors.ErrCodeExternalService), apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "deploy x.bpmn")
}

func TestDeployResource_MissingFile(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: DefaultRetryConfig}}

	_, err := c.DeployResource(context.Background(), filepath.Join(t.TempDir(), "missing.bpmn"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.bpmn")
}
