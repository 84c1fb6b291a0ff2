package notifynewappointment

import (
	"context"

	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"
)

const (
	StatusPublished  = "published"
	StatusSuppressed = "suppressed"
	StatusFailed     = "failed"
)

type Input struct {
	FacilityID       string             `json:"facilityId"`
	SpecializationID string             `json:"specializationId"`
	DoctorID         string             `json:"doctorId"`
	AppointmentID    string             `json:"appointmentId"`
	Appointment      models.Appointment `json:"appointment"`
}

type Output struct {
	Status     string `json:"status"`
	Topic      string `json:"topic,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	Title      string `json:"title,omitempty"`
	Body       string `json:"body,omitempty"`
	DoctorName string `json:"doctorName,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DoctorLookup is the store read used when the appointment carries no doctor name.
type DoctorLookup interface {
	GetDoctor(ctx context.Context, facilityID, specializationID, doctorID string) (*models.Doctor, error)
}

type Publisher interface {
	Publish(ctx context.Context, n models.PushNotification) (string, error)
}

type ServiceDependencies struct {
	Logger    logger.Logger
	Doctors   DoctorLookup
	Publisher Publisher
}
