package notifyhomeclinicrequest

import (
	"context"
	"fmt"
	"strings"

	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"
	"clinic-notify-workers/internal/models"
)

const (
	Topic            = "home_clinic_requests"
	placeholder      = "غير معروف"
	title            = "طلب عيادة منزلية جديد"
	notificationType = "new_home_clinic_request"
)

type Service struct {
	logger    logger.Logger
	publisher Publisher
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{logger: deps.Logger, publisher: deps.Publisher}
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// BuildNotification composes the home-clinic push message. The payload keeps
// centerName next to providerName for older clients.
func BuildNotification(input *Input) models.PushNotification {
	r := input.Request
	patient := orPlaceholder(r.PatientName)
	phone := orPlaceholder(r.PatientPhone)
	service := orPlaceholder(r.ServiceType)
	provider := orPlaceholder(r.ProviderName)

	return models.PushNotification{
		Topic: Topic,
		Title: title,
		Body: fmt.Sprintf("المريض: %s - الهاتف: %s - الخدمة: %s - مقدم الخدمة: %s",
			patient, phone, service, provider),
		Data: map[string]string{
			"type":         notificationType,
			"requestId":    input.RequestID,
			"patientName":  patient,
			"patientPhone": phone,
			"serviceType":  service,
			"providerName": provider,
			"centerName":   provider,
		},
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	n := BuildNotification(input)
	out := &Output{Topic: n.Topic}

	messageID, err := s.publisher.Publish(ctx, n)
	if err != nil {
		stdErr := errors.NewPushPublishFailedError(n.Topic, err)
		s.logger.Error("Error sending home clinic request notification", map[string]interface{}{
			"requestId": input.RequestID,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		metrics.NotificationsFailed.WithLabelValues(notificationType).Inc()
		out.Status = StatusFailed
		out.Error = stdErr.Error()
		return out, nil
	}

	metrics.NotificationsPublished.WithLabelValues(notificationType).Inc()
	s.logger.Info("Home clinic request notification published", map[string]interface{}{
		"requestId": input.RequestID,
		"messageId": messageID,
	})
	out.Status = StatusPublished
	out.MessageID = messageID
	return out, nil
}
