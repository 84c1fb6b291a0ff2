// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself; a returned error is only logged.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. A zero timeout keeps the broker default.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			start := time.Now()
			status := "completed"
			if err := handler.Handle(client, job); err != nil {
				status = "failed"
				log.Error("Handler returned error", map[string]interface{}{
					"taskType": taskType,
					"jobKey":   job.Key,
					"error":    err,
				})
			}
			obs := observability.Current()
			obs.RecordJobProcessed(context.Background(), taskType, status)
			obs.RecordJobDuration(context.Background(), taskType, time.Since(start), status)
		}).
		MaxJobsActive(maxJobsActive)
	if timeout > 0 {
		builder = builder.Timeout(timeout)
	}

	return &CamundaWorker{
		worker:   builder.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the job worker. The shared zbc client is closed by its owner.
func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("Stopping worker", map[string]interface{}{"taskType": w.taskType})
	done := make(chan struct{})
	go func() {
		w.worker.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("Worker stop timed out", map[string]interface{}{"taskType": w.taskType})
	}
}
