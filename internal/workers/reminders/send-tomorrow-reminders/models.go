package sendtomorrowreminders

import (
	"context"

	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"
)

const (
	ReasonInvalidDate  = "invalid date"
	ReasonNotTomorrow  = "not tomorrow"
	ReasonMissingPhone = "missing phone"
	ReasonNotPending   = "not pending"
)

// Output describes one sweep run.
type Output struct {
	RunID    string                  `json:"runId"`
	Tomorrow string                  `json:"tomorrow"`
	Total    int                     `json:"total"`
	Sent     int                     `json:"sent"`
	Results  []models.ReminderResult `json:"results"`

	// Locked is set when another run held the sweep lock.
	Locked bool   `json:"locked,omitempty"`
	Error  string `json:"error,omitempty"`
}

type Store interface {
	ListPendingReminders(ctx context.Context) ([]models.ScheduledAppointment, error)
	MarkReminderSent(ctx context.Context, id string) error
}

type Sender interface {
	SendChat(ctx context.Context, to, body string) error
}

// Locker guards against overlapping runs. release must be called once the
// run finishes when acquired is true.
type Locker interface {
	Acquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error)
}

type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	Store  Store
	Sender Sender
	Locker Locker
	Mailer Mailer
}
