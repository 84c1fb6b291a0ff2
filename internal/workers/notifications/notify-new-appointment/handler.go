package notifynewappointment

import (
	"context"
	"fmt"
	"time"

	"clinic-notify-workers/internal/common/camunda"
	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/datetime"
	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/jobs"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/messaging"
	"clinic-notify-workers/internal/common/metrics"
	"clinic-notify-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType   = "notify-new-appointment"
	RoutingKey = messaging.RoutingAppointmentCreated
)

type Handler struct {
	config    *Config
	logger    logger.Logger
	camunda   *camunda.Client
	service   *Service
	jobWorker *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Logger       logger.Logger
	Doctors      DoctorLookup
	Publisher    Publisher
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig, err := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("%s requires a push publisher", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": TaskType})

	handler := &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		camunda: opts.Camunda,
	}
	handler.service = NewService(ServiceDependencies{
		Logger:    loggerInstance,
		Doctors:   opts.Doctors,
		Publisher: opts.Publisher,
	}, workerConfig)

	return handler, nil
}

// Handle processes a Zeebe job. The job is completed even when the publish
// fails; only an invalid envelope throws.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing new appointment job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		jobs.Fail(ctx, client, job, err, h.logger)
		return err
	}

	output, _ := h.Execute(ctx, input)
	jobs.Complete(ctx, client, job, outputVariables(output), h.logger, TaskType)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

// HandleEvent processes one change-feed message.
func (h *Handler) HandleEvent(ctx context.Context, body []byte) error {
	event, err := jobs.DecodeEventJSON(body, envelopeValidator)
	if err != nil {
		return err
	}
	_, err = h.Execute(ctx, inputFromEvent(event))
	return err
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidEventError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	event, err := jobs.DecodeEvent(variables, envelopeValidator)
	if err != nil {
		return nil, err
	}
	return inputFromEvent(event), nil
}

func inputFromEvent(event *models.DocumentEvent) *Input {
	return &Input{
		FacilityID:       event.Param("facilityId"),
		SpecializationID: event.Param("specializationId"),
		DoctorID:         event.Param("doctorId"),
		AppointmentID:    event.Param("appointmentId"),
		Appointment:      models.AppointmentFromDocument(event.Document),
	}
}

func outputVariables(output *Output) map[string]interface{} {
	vars := map[string]interface{}{
		"notificationStatus": output.Status,
	}
	if output.Topic != "" {
		vars["notificationTopic"] = output.Topic
	}
	if output.MessageID != "" {
		vars["notificationMessageId"] = output.MessageID
	}
	if output.Error != "" {
		vars["notificationError"] = output.Error
	}
	return vars
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("%s: camunda client is required to register", TaskType)
	}

	h.jobWorker = camunda.NewWorker(h.camunda.GetClient(), TaskType, h.config.MaxJobsActive, h.config.Timeout, h, h.logger)

	h.logger.Info("Worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
	})
	return nil
}

func (h *Handler) Close(ctx context.Context) {
	if h.jobWorker != nil {
		h.jobWorker.Stop(ctx)
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

// Execute runs the notification for an already decoded input.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) (*Config, error) {
	if customConfig != nil {
		return customConfig, nil
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg, nil
	}

	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}

	loc, err := datetime.LoadLocation(appConfig.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("app.timezone: %w", err)
	}
	cfg.Location = loc
	return cfg, nil
}
