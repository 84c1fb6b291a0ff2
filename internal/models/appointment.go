// internal/models/appointment.go
package models

import "time"

const (
	// StatusScheduled marks a scheduled appointment as eligible for a reminder.
	StatusScheduled = "scheduled"

	// CreatedByReception suppresses notifications for staff-made bookings.
	CreatedByReception = "reception"
)

// Appointment is the booking record under
// facilities/{facilityId}/specializations/{specializationId}/doctors/{doctorId}/appointments/{appointmentId}.
type Appointment struct {
	PatientName   string `json:"patientName"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	DoctorName    string `json:"doctorName"`
	CreatedBy     string `json:"createdBy"`
	CreatedByType string `json:"createdByType"`
}

func AppointmentFromDocument(doc Document) Appointment {
	return Appointment{
		PatientName:   doc.String("patientName"),
		Date:          doc.String("date"),
		Time:          doc.String("time"),
		DoctorName:    doc.String("doctorName"),
		CreatedBy:     doc.String("createdBy"),
		CreatedByType: doc.String("createdByType"),
	}
}

// CreatedByReception reports whether staff created the booking.
func (a Appointment) CreatedByReception() bool {
	return a.CreatedByType == CreatedByReception || a.CreatedBy == CreatedByReception
}

// Doctor holds the two name fields a doctor record may carry.
type Doctor struct {
	DocName    string `json:"docName" bson:"docName"`
	DoctorName string `json:"doctorName" bson:"doctorName"`
}

// Name prefers docName over doctorName.
func (d Doctor) Name() string {
	if d.DocName != "" {
		return d.DocName
	}
	return d.DoctorName
}

// ScheduledAppointment is a reminder candidate.
type ScheduledAppointment struct {
	ID              string     `json:"id"`
	AppointmentDate string     `json:"appointmentDate"`
	PatientPhone    string     `json:"patientPhone"`
	DoctorName      string     `json:"doctorName"`
	Status          string     `json:"status"`
	ReminderSent    bool       `json:"reminderSent"`
	ReminderSentAt  *time.Time `json:"reminderSentAt,omitempty"`
}

type PatientSignup struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func PatientSignupFromDocument(doc Document) PatientSignup {
	return PatientSignup{
		Name:  doc.String("name", "patientName"),
		Phone: doc.String("phone", "patientPhone"),
	}
}

type HomeClinicRequest struct {
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	ServiceType  string `json:"serviceType"`
	ProviderName string `json:"providerName"`
}

// HomeClinicRequestFromDocument reads each field from its current name first
// and falls back to the legacy one.
func HomeClinicRequestFromDocument(doc Document) HomeClinicRequest {
	return HomeClinicRequest{
		PatientName:  doc.String("patientName", "name"),
		PatientPhone: doc.String("patientPhone", "phone"),
		ServiceType:  doc.String("serviceType", "service"),
		ProviderName: doc.String("providerName", "centerName"),
	}
}
