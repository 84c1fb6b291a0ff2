// internal/common/docstore/postgres.go
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"clinic-notify-workers/internal/models"
)

// Tables:
//
//	doctors(facility_id, specialization_id, doctor_id, data JSONB)
//	scheduled_appointments(id, appointment_date, patient_phone, doctor_name,
//	    status, reminder_sent, reminder_sent_at)
const (
	getDoctorQuery = `
		SELECT COALESCE(data->>'docName', ''), COALESCE(data->>'doctorName', '')
		FROM doctors
		WHERE facility_id = $1 AND specialization_id = $2 AND doctor_id = $3`

	listPendingRemindersQuery = `
		SELECT id, COALESCE(appointment_date, ''), COALESCE(patient_phone, ''),
		       COALESCE(doctor_name, ''), status, reminder_sent
		FROM scheduled_appointments
		WHERE status = $1 AND reminder_sent = FALSE`

	markReminderSentQuery = `
		UPDATE scheduled_appointments
		SET reminder_sent = TRUE, reminder_sent_at = NOW()
		WHERE id = $1 AND reminder_sent = FALSE`
)

// PostgresStore implements Store on lib/pq.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetDoctor(ctx context.Context, facilityID, specializationID, doctorID string) (*models.Doctor, error) {
	var doc models.Doctor
	err := s.db.QueryRowContext(ctx, getDoctorQuery, facilityID, specializationID, doctorID).
		Scan(&doc.DocName, &doc.DoctorName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query doctor %s: %w", doctorID, err)
	}
	return &doc, nil
}

func (s *PostgresStore) ListPendingReminders(ctx context.Context) ([]models.ScheduledAppointment, error) {
	rows, err := s.db.QueryContext(ctx, listPendingRemindersQuery, models.StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("query pending reminders: %w", err)
	}
	defer rows.Close()

	var out []models.ScheduledAppointment
	for rows.Next() {
		var rec models.ScheduledAppointment
		if err := rows.Scan(&rec.ID, &rec.AppointmentDate, &rec.PatientPhone,
			&rec.DoctorName, &rec.Status, &rec.ReminderSent); err != nil {
			return nil, fmt.Errorf("scan pending reminder: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending reminders: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkReminderSent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, markReminderSentQuery, id)
	if err != nil {
		return fmt.Errorf("mark reminder sent %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reminder sent %s: %w", id, err)
	}
	if n == 0 {
		return ErrNoPendingRecord
	}
	return nil
}
