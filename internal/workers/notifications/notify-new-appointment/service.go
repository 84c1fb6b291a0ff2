package notifynewappointment

import (
	"context"
	"time"

	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	doctors   DoctorLookup
	publisher Publisher
	now       func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    deps.Logger,
		doctors:   deps.Doctors,
		publisher: deps.Publisher,
		now:       time.Now,
	}
}

// Execute never returns an error for lookup or publish failures; they are
// logged and reflected in Output.Status.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	fields := map[string]interface{}{
		"doctorId":      input.DoctorID,
		"appointmentId": input.AppointmentID,
	}

	if input.Appointment.CreatedByReception() {
		s.logger.Info("Reception booking, notification suppressed", fields)
		metrics.NotificationsSuppressed.WithLabelValues(notificationType).Inc()
		return &Output{Status: StatusSuppressed}, nil
	}

	doctorName := s.resolveDoctorName(ctx, input)
	n := BuildNotification(input, doctorName, s.now(), s.config.Location)

	out := &Output{
		Topic:      n.Topic,
		Title:      n.Title,
		Body:       n.Body,
		DoctorName: doctorName,
	}

	messageID, err := s.publisher.Publish(ctx, n)
	if err != nil {
		stdErr := errors.NewPushPublishFailedError(n.Topic, err)
		fields["topic"] = n.Topic
		fields["errorCode"] = string(stdErr.Code)
		fields["error"] = err
		s.logger.Error("Error sending appointment notification", fields)
		metrics.NotificationsFailed.WithLabelValues(notificationType).Inc()
		out.Status = StatusFailed
		out.Error = stdErr.Error()
		return out, nil
	}

	metrics.NotificationsPublished.WithLabelValues(notificationType).Inc()
	fields["topic"] = n.Topic
	fields["messageId"] = messageID
	s.logger.Info("Appointment notification published", fields)

	out.Status = StatusPublished
	out.MessageID = messageID
	return out, nil
}

// resolveDoctorName does at most one store read and returns "" on failure.
func (s *Service) resolveDoctorName(ctx context.Context, input *Input) string {
	if input.Appointment.DoctorName != "" {
		return input.Appointment.DoctorName
	}
	if s.doctors == nil {
		return ""
	}

	doc, err := s.doctors.GetDoctor(ctx, input.FacilityID, input.SpecializationID, input.DoctorID)
	if err != nil {
		stdErr := errors.NewDoctorLookupFailedError(input.DoctorID, err)
		s.logger.Warn("Error fetching doctor name for notification", map[string]interface{}{
			"doctorId":  input.DoctorID,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		return ""
	}
	return doc.Name()
}
