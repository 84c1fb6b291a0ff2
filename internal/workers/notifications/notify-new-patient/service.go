package notifynewpatient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"
	"clinic-notify-workers/internal/models"
)

const (
	Topic            = "new_patients"
	placeholder      = "غير معروف"
	title            = "تسجيل مريض جديد"
	notificationType = "new_patient"
)

type Service struct {
	logger    logger.Logger
	publisher Publisher
	now       func() time.Time
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		logger:    deps.Logger,
		publisher: deps.Publisher,
		now:       time.Now,
	}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// BuildNotification composes the new-patient push message. requestedAt is
// rendered in UTC.
func BuildNotification(input *Input, requestedAt time.Time) models.PushNotification {
	return models.PushNotification{
		Topic: Topic,
		Title: title,
		Body:  fmt.Sprintf("الاسم: %s - الهاتف: %s", orPlaceholder(input.Patient.Name), orPlaceholder(input.Patient.Phone)),
		Data: map[string]string{
			"type":        notificationType,
			"patientId":   input.PatientID,
			"requestedAt": requestedAt.UTC().Format(time.RFC3339),
		},
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	n := BuildNotification(input, s.now())
	out := &Output{Topic: n.Topic, RequestedAt: n.Data["requestedAt"]}

	messageID, err := s.publisher.Publish(ctx, n)
	if err != nil {
		stdErr := errors.NewPushPublishFailedError(n.Topic, err)
		s.logger.Error("Error sending new patient notification", map[string]interface{}{
			"patientId": input.PatientID,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		metrics.NotificationsFailed.WithLabelValues(notificationType).Inc()
		out.Status = StatusFailed
		out.Error = stdErr.Error()
		return out, nil
	}

	metrics.NotificationsPublished.WithLabelValues(notificationType).Inc()
	s.logger.Info("New patient notification published", map[string]interface{}{
		"patientId": input.PatientID,
		"messageId": messageID,
	})
	out.Status = StatusPublished
	out.MessageID = messageID
	return out, nil
}
