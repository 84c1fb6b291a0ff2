package sendtomorrowreminders

import (
	"context"
	"fmt"
	"time"

	"clinic-notify-workers/internal/common/camunda"
	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/datetime"
	"clinic-notify-workers/internal/common/jobs"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "send-tomorrow-reminders"

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
	Store        Store
	Sender       Sender

	// Redis enables the overlap lock when set.
	Redis  *redis.Client
	Mailer Mailer
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig, err := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Store == nil || opts.Sender == nil {
		return nil, fmt.Errorf("%s requires a store and a gateway sender", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": TaskType})

	deps := ServiceDependencies{
		Logger: loggerInstance,
		Store:  opts.Store,
		Sender: opts.Sender,
		Mailer: opts.Mailer,
	}
	if opts.Redis != nil {
		deps.Locker = NewRedisLock(opts.Redis, workerConfig.LockTTL)
	}

	return &Handler{
		config:  workerConfig,
		logger:  loggerInstance,
		camunda: opts.Camunda,
		service: NewService(deps, workerConfig),
	}, nil
}

// Handle runs the sweep for a timer-started job. Job variables are ignored
// and the job is always completed.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing reminder sweep job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, _ := h.service.Run(ctx)
	jobs.Complete(ctx, client, job, outputVariables(output), h.logger, TaskType)

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

// Run is the entry point for the in-process scheduler and the one-shot command.
func (h *Handler) Run(ctx context.Context) error {
	_, err := h.Execute(ctx)
	return err
}

// Execute runs one sweep bounded by the worker timeout.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()
	return h.service.Run(ctx)
}

func outputVariables(output *Output) map[string]interface{} {
	vars := map[string]interface{}{
		"reminderRunId":    output.RunID,
		"reminderTomorrow": output.Tomorrow,
		"remindersTotal":   output.Total,
		"remindersSent":    output.Sent,
	}
	if output.Locked {
		vars["reminderSkipped"] = true
	}
	if output.Error != "" {
		vars["reminderError"] = output.Error
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

func (h *Handler) GetTaskType() string { return TaskType }

func (h *Handler) IsEnabled() bool { return h.config.Enabled }

func (h *Handler) GetConfig() *Config { return h.config }

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

	r := appConfig.Reminders
	loc, err := datetime.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminders.timezone: %w", err)
	}
	cfg.Location = loc
	if r.DefaultRegion != "" {
		cfg.DefaultRegion = r.DefaultRegion
	}
	if r.LockTTL > 0 {
		cfg.LockTTL = config.GetDuration(r.LockTTL)
	}

	email := appConfig.Notifications.SummaryEmail
	cfg.Summary = SummaryConfig{Enabled: email.Enabled, From: email.From, To: email.To}
	return cfg, nil
}
