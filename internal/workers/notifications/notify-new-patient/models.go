package notifynewpatient

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
	PatientID string               `json:"patientId"`
	Patient   models.PatientSignup `json:"patient"`
}

type Output struct {
	Status      string `json:"status"`
	Topic       string `json:"topic"`
	MessageID   string `json:"messageId,omitempty"`
	RequestedAt string `json:"requestedAt"`
	Error       string `json:"error,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, n models.PushNotification) (string, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Publisher Publisher
}
