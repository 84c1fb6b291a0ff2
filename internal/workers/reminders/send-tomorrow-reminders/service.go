package sendtomorrowreminders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clinic-notify-workers/internal/common/datetime"
	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"
	"clinic-notify-workers/internal/models"

	"github.com/google/uuid"
)

type Service struct {
	config *Config
	logger logger.Logger
	store  Store
	sender Sender
	locker Locker
	mailer Mailer
	now    func() time.Time
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		store:  deps.Store,
		sender: deps.Sender,
		locker: deps.Locker,
		mailer: deps.Mailer,
		now:    time.Now,
	}
}

// Run performs one sweep. Records are processed one at a time; a failure on
// one record never stops the run. Only a query failure returns an error, and
// nothing has been updated at that point.
func (s *Service) Run(ctx context.Context) (*Output, error) {
	startTime := time.Now()
	defer func() {
		metrics.ReminderSweepDuration.Observe(time.Since(startTime).Seconds())
	}()

	tomorrow := datetime.Tomorrow(s.now(), s.config.Location)
	out := &Output{
		RunID:    uuid.NewString(),
		Tomorrow: tomorrow.Format("2006-01-02"),
		Results:  []models.ReminderResult{},
	}
	log := s.logger.WithFields(map[string]interface{}{"runId": out.RunID})

	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(ctx)
		switch {
		case err != nil:
			log.Warn("Sweep lock unavailable, continuing without it", map[string]interface{}{"error": err})
		case !acquired:
			log.Info("Another reminder sweep is running, skipping", nil)
			out.Locked = true
			return out, nil
		default:
			defer func() {
				if err := release(context.Background()); err != nil {
					log.Warn("Failed to release sweep lock", map[string]interface{}{"error": err})
				}
			}()
		}
	}

	records, err := s.store.ListPendingReminders(ctx)
	if err != nil {
		stdErr := errors.NewReminderQueryFailedError(err)
		log.Error("Reminder query failed, aborting run", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		out.Error = stdErr.Error()
		return out, stdErr
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			log.Warn("Reminder sweep cancelled", map[string]interface{}{"processed": len(out.Results)})
			break
		}
		result := s.processRecord(ctx, log, rec, tomorrow)
		if result.Sent {
			out.Sent++
		}
		out.Results = append(out.Results, result)
	}
	out.Total = len(out.Results)

	log.Info("Reminders sent", map[string]interface{}{
		"summary":  fmt.Sprintf("%d/%d", out.Sent, out.Total),
		"tomorrow": out.Tomorrow,
		"results":  out.Results,
	})

	s.sendSummary(ctx, log, out)
	return out, nil
}

func (s *Service) processRecord(ctx context.Context, log logger.Logger, rec models.ScheduledAppointment, tomorrow time.Time) models.ReminderResult {
	skip := func(reason string) models.ReminderResult {
		metrics.RemindersProcessed.WithLabelValues("skipped").Inc()
		return models.ReminderResult{ID: rec.ID, Sent: false, Reason: reason}
	}

	if rec.Status != models.StatusScheduled || rec.ReminderSent {
		return skip(ReasonNotPending)
	}
	date, ok := datetime.ParseDate(rec.AppointmentDate, s.config.Location)
	if !ok {
		return skip(ReasonInvalidDate)
	}
	if !datetime.SameDay(date, tomorrow) {
		return skip(ReasonNotTomorrow)
	}
	if strings.TrimSpace(rec.PatientPhone) == "" {
		return skip(ReasonMissingPhone)
	}

	to := NormalizePhone(rec.PatientPhone, s.config.DefaultRegion)
	if err := s.sender.SendChat(ctx, to, ReminderMessage(rec.DoctorName)); err != nil {
		metrics.RemindersProcessed.WithLabelValues("failed").Inc()
		metrics.RemindersFailed.Inc()
		log.Error("Reminder dispatch failed, record stays pending", map[string]interface{}{
			"recordId":  rec.ID,
			"errorCode": errors.CodeOf(err),
			"error":     err,
		})
		return models.ReminderResult{ID: rec.ID, Sent: false, Reason: err.Error()}
	}

	metrics.RemindersProcessed.WithLabelValues("sent").Inc()
	if err := s.store.MarkReminderSent(ctx, rec.ID); err != nil {
		stdErr := errors.NewReminderUpdateFailedError(rec.ID, err)
		log.Error("Reminder sent but record not marked", map[string]interface{}{
			"recordId":  rec.ID,
			"errorCode": string(stdErr.Code),
			"error":     err,
		})
		return models.ReminderResult{ID: rec.ID, Sent: true, Reason: "mark sent failed: " + err.Error()}
	}
	return models.ReminderResult{ID: rec.ID, Sent: true}
}
