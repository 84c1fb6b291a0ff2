// Package gateway sends chat messages through the third-party messaging
// gateway (UltraMsg-compatible API).
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"clinic-notify-workers/internal/common/config"
	apperrors "clinic-notify-workers/internal/common/errors"
	commonhttp "clinic-notify-workers/internal/common/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("clinic-notify-workers/gateway")

// StatusError is returned for any non-2xx gateway response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.StatusCode, e.Body)
}

// Sender is what the reminder sweep depends on.
type Sender interface {
	SendChat(ctx context.Context, to, body string) error
}

// Client posts one chat message per call. Credentials are read on every call
// so a process can start without them.
type Client struct {
	cfg  config.GatewayConfig
	http *commonhttp.Client
}

// NewClient uses transport defaults when httpClient is nil.
func NewClient(cfg config.GatewayConfig, httpClient *commonhttp.Client) *Client {
	if httpClient == nil {
		httpClient = commonhttp.NewClient(0)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultGatewayBaseURL
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Endpoint returns <base>/<instance>/messages/chat.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + url.PathEscape(c.cfg.InstanceID) + "/messages/chat"
}

// SendChat makes a single attempt. It fails before any network call when the
// instance id or token is missing.
func (c *Client) SendChat(ctx context.Context, to, body string) error {
	if c.cfg.InstanceID == "" {
		return apperrors.NewGatewayNotConfiguredError("gateway.instance_id")
	}
	if c.cfg.Token == "" {
		return apperrors.NewGatewayNotConfiguredError("gateway.token")
	}

	ctx, span := tracer.Start(ctx, "gateway.send_chat")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.instance", c.cfg.InstanceID))

	form := url.Values{}
	form.Set("token", c.cfg.Token)
	form.Set("to", to)
	form.Set("body", body)

	resp, err := c.http.PostForm(ctx, c.Endpoint(), form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return apperrors.NewGatewayRequestFailedError(err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, "non-2xx response")
		return apperrors.NewGatewayRequestFailedError(statusErr)
	}
	return nil
}
