package notifyhomeclinicrequest

import (
	"context"
	"fmt"
	"time"

	"clinic-notify-workers/internal/common/camunda"
	"clinic-notify-workers/internal/common/config"
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
	TaskType   = "notify-home-clinic-request"
	RoutingKey = messaging.RoutingHomeClinicRequestCreated
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
	Publisher    Publisher
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
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

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		camunda: opts.Camunda,
		service: NewService(ServiceDependencies{Logger: loggerInstance, Publisher: opts.Publisher}),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
		jobs.Fail(ctx, client, job, err, h.logger)
		return err
	}

	output, _ := h.Execute(ctx, input)
	variables := map[string]interface{}{
		"notificationStatus": output.Status,
		"notificationTopic":  output.Topic,
	}
	if output.MessageID != "" {
		variables["notificationMessageId"] = output.MessageID
	}
	if output.Error != "" {
		variables["notificationError"] = output.Error
	}
	jobs.Complete(ctx, client, job, variables, h.logger, TaskType)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

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
		RequestID: event.Param("requestId"),
		Request:   models.HomeClinicRequestFromDocument(event.Document),
	}
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
	})
	return nil
}

func (h *Handler) Close(ctx context.Context) {
	if h.jobWorker != nil {
		h.jobWorker.Stop(ctx)
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
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
	return cfg
}
