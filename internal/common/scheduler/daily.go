// Package scheduler runs a task once a day at a fixed wall-clock time in a
// fixed timezone.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"clinic-notify-workers/internal/common/logger"
)

// Task is invoked once per firing. Its error is logged only.
type Task func(ctx context.Context) error

type Daily struct {
	name   string
	hour   int
	minute int
	loc    *time.Location
	task   Task
	logger logger.Logger
	now    func() time.Time
}

// NewDaily parses at as HH:MM.
func NewDaily(name, at string, loc *time.Location, task Task, log logger.Logger) (*Daily, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: %w", at, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Daily{
		name:   name,
		hour:   t.Hour(),
		minute: t.Minute(),
		loc:    loc,
		task:   task,
		logger: log,
		now:    time.Now,
	}, nil
}

// NextRun returns the first firing strictly after from.
func (d *Daily) NextRun(from time.Time) time.Time {
	local := from.In(d.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.hour, d.minute, 0, 0, d.loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.hour, d.minute, 0, 0, d.loc)
	}
	return next
}

// Start blocks until ctx is cancelled. Runs never overlap within one process.
func (d *Daily) Start(ctx context.Context) {
	for {
		now := d.now()
		next := d.NextRun(now)
		wait := next.Sub(now)
		d.logger.Info("Next scheduled run", map[string]interface{}{
			"task":  d.name,
			"runAt": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := d.task(ctx); err != nil {
			d.logger.Error("Scheduled task failed", map[string]interface{}{
				"task":  d.name,
				"error": err,
			})
		}
	}
}
