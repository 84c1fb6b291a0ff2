package notifyhomeclinicrequest

import (
	"context"

	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"
)

const (
	StatusPublished = "published"
	StatusFailed    = "failed"
)

type Input struct {
	RequestID string                   `json:"requestId"`
	Request   models.HomeClinicRequest `json:"request"`
}

type Output struct {
	Status    string `json:"status"`
	Topic     string `json:"topic"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, n models.PushNotification) (string, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Publisher Publisher
}
