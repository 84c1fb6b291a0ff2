// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"clinic-notify-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Zeebe gRPC client used for job workers and process deploys.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig bounds deploy retries on an unavailable or overloaded broker.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClientWithConfig creates a Camunda client and checks the broker topology.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, mapZeebeError(err, "topology "+config.GatewayAddress)
	}

	return &Client{
		client: zeebeClient,
		config: config,
	}, nil
}

// GetClient returns the raw Zeebe client for job polling.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// isRetryableZeebeError reports gateway codes that clear up on their own:
// broker down, backpressure, or a request that ran out of time.
func isRetryableZeebeError(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func mapZeebeError(err error, operation string) error {
	wrapped := fmt.Errorf("zeebe %s: %w", operation, err)
	if status.Code(err) == codes.DeadlineExceeded {
		return errors.NewTimeoutError("zeebe", wrapped)
	}
	return errors.NewExternalServiceError("zeebe", wrapped)
}

// DeployResource deploys a BPMN file, retrying transient broker errors, and
// returns the deployment key. A missing or unreadable file is an error rather
// than the client's process exit.
func (c *Client) DeployResource(ctx context.Context, path string) (int64, error) {
	definition, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read resource %s: %w", path, err)
	}
	name := filepath.Base(path)
	retry := c.config.RetryConfig

	for attempt := 0; ; attempt++ {
		reqCtx := ctx
		cancel := func() {}
		if c.config.RequestTimeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		}
		resp, err := c.client.NewDeployResourceCommand().AddResource(definition, name).Send(reqCtx)
		cancel()
		if err == nil {
			return resp.GetKey(), nil
		}
		if !isRetryableZeebeError(err) || attempt >= retry.MaxRetries {
			return 0, mapZeebeError(err, "deploy "+name)
		}

		delay := retry.BaseDelay * time.Duration(1<<attempt)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, fmt.Errorf("deploy %s cancelled after %d attempts: %w", name, attempt+1, ctx.Err())
		}
	}
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
