// Package docstore reads and updates the clinic records the notification
// workers need. Both backends expose the same Store interface.
package docstore

import (
	"context"
	"errors"

	"clinic-notify-workers/internal/models"
)

var (
	// ErrNotFound is returned when a doctor record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNoPendingRecord is returned by MarkReminderSent when the record is
	// missing or already marked.
	ErrNoPendingRecord = errors.New("no pending reminder for record")
)

// Store is the document store handle shared by every handler.
type Store interface {
	GetDoctor(ctx context.Context, facilityID, specializationID, doctorID string) (*models.Doctor, error)
	// ListPendingReminders returns every record with status "scheduled" and
	// reminderSent false. No date filter is applied.
	ListPendingReminders(ctx context.Context) ([]models.ScheduledAppointment, error)
	// MarkReminderSent flips reminderSent and stamps reminderSentAt with the
	// store server's clock.
	MarkReminderSent(ctx context.Context, id string) error
}
