// cmd/notification-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clinic-notify-workers/internal/common/aws"
	"clinic-notify-workers/internal/common/camunda"
	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/database"
	"clinic-notify-workers/internal/common/datetime"
	"clinic-notify-workers/internal/common/docstore"
	"clinic-notify-workers/internal/common/gateway"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/common/messaging"
	"clinic-notify-workers/internal/common/observability"
	"clinic-notify-workers/internal/common/scheduler"

	nhr "clinic-notify-workers/internal/workers/notifications/notify-home-clinic-request"
	nna "clinic-notify-workers/internal/workers/notifications/notify-new-appointment"
	nnp "clinic-notify-workers/internal/workers/notifications/notify-new-patient"
	str "clinic-notify-workers/internal/workers/reminders/send-tomorrow-reminders"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// registrable is implemented by every worker handler.
type registrable interface {
	GetTaskType() string
	Register() error
	Close(ctx context.Context)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}
	if err := config.ValidateManager(cfg); err != nil {
		logger.New("info", "console").Fatal("invalid manager configuration", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification manager...", zap.String("environment", cfg.App.Environment))

	obs := observability.New("notification-manager", log)
	defer obs.Shutdown()

	ctx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// --- Document store ---
	store, pingStore, closeStore := openStore(ctx, cfg, zapLog)
	defer closeStore()

	// --- Redis (optional, sweep lock only) ---
	var redisClient *database.RedisClient
	if cfg.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, reminder sweep runs without overlap lock", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- External service clients ---
	push, err := aws.NewSNSClient(ctx, cfg.Push.Region, cfg.Push.TopicARNPrefix)
	if err != nil {
		zapLog.Fatal("sns client init failed", zap.Error(err))
	}

	var mailer str.Mailer
	if cfg.Notifications.SummaryEmail.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		mailer = ses
	}

	chat := gateway.NewClient(cfg.Gateway, nil)
	zapLog.Info("All external service clients initialized")

	// --- Zeebe ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		for _, resource := range cfg.Camunda.DeployResources {
			key, err := zeebe.DeployResource(ctx, resource)
			if err != nil {
				zapLog.Error("bpmn deployment failed", zap.String("resource", resource), zap.Error(err))
				continue
			}
			zapLog.Info("bpmn deployed", zap.String("resource", resource), zap.Int64("deploymentKey", key))
		}
	}

	// --- Handlers ---
	appointment, err := nna.NewHandler(nna.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Logger:    log,
		Doctors:   store,
		Publisher: push,
	})
	if err != nil {
		zapLog.Fatal("failed to create notify-new-appointment handler", zap.Error(err))
	}

	patient, err := nnp.NewHandler(nnp.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Logger:    log,
		Publisher: push,
	})
	if err != nil {
		zapLog.Fatal("failed to create notify-new-patient handler", zap.Error(err))
	}

	homeClinic, err := nhr.NewHandler(nhr.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Logger:    log,
		Publisher: push,
	})
	if err != nil {
		zapLog.Fatal("failed to create notify-home-clinic-request handler", zap.Error(err))
	}

	reminderOpts := str.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Logger:    log,
		Store:     store,
		Sender:    chat,
		Mailer:    mailer,
	}
	if redisClient != nil {
		reminderOpts.Redis = redisClient.GetClient()
	}
	reminders, err := str.NewHandler(reminderOpts)
	if err != nil {
		zapLog.Fatal("failed to create send-tomorrow-reminders handler", zap.Error(err))
	}

	handlers := []registrable{appointment, patient, homeClinic, reminders}
	if zeebe != nil {
		for _, h := range handlers {
			if err := h.Register(); err != nil {
				zapLog.Fatal("worker registration failed", zap.String("taskType", h.GetTaskType()), zap.Error(err))
			}
		}
		zapLog.Info("All workers registered successfully", zap.Int("count", len(handlers)))
	}

	// --- Change feed ---
	var consumer *messaging.Consumer
	if cfg.RabbitMQ.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			consumer, err = messaging.NewConsumer(cfg.RabbitMQ, log)
			return err
		}, 10, 2*time.Second, zapLog, "RabbitMQ connection")
		if err != nil {
			zapLog.Fatal("rabbitmq failed after retries", zap.Error(err))
		}
		consumer.Register(nna.RoutingKey, appointment.HandleEvent)
		consumer.Register(nnp.RoutingKey, patient.HandleEvent)
		consumer.Register(nhr.RoutingKey, homeClinic.HandleEvent)

		go func() {
			if err := consumer.Start(ctx); err != nil {
				zapLog.Error("change feed consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- Daily scheduler ---
	if cfg.Reminders.SchedulerEnabled {
		loc, err := datetime.LoadLocation(cfg.Reminders.Timezone)
		if err != nil {
			zapLog.Fatal("invalid reminders timezone", zap.Error(err))
		}
		daily, err := scheduler.NewDaily(str.TaskType, cfg.Reminders.ScheduleTime, loc, reminders.Run, log)
		if err != nil {
			zapLog.Fatal("invalid reminders schedule", zap.Error(err))
		}
		go daily.Start(ctx)
	}

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "starting")
			return
		}
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pingStore(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
		if zeebe != nil {
			if err := zeebe.HealthCheck(pingCtx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "zeebe unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()
	ready.Store(true)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	ready.Store(false)
	cancelRoot()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, h := range handlers {
		h.Close(shutdownCtx)
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			zapLog.Error("Error closing change feed consumer", zap.Error(err))
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Notification manager stopped gracefully")
}

// openStore connects the configured backend with retries.
func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (docstore.Store, func(context.Context) error, func()) {
	switch cfg.Store.Driver {
	case "mongo":
		var mc *database.MongoClient
		err := retryWithBackoff(func() error {
			var err error
			mc, err = database.NewMongo(ctx, cfg.Store.Mongo)
			if err != nil {
				return err
			}
			return mc.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "MongoDB connection")
		if err != nil {
			zapLog.Fatal("mongo failed after retries", zap.Error(err))
		}
		zapLog.Info("MongoDB connected successfully")
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mc.Close(closeCtx)
		}
		return docstore.NewMongoStore(mc.DB), mc.Ping, closeFn

	default:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Store.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
		return docstore.NewPostgresStore(pg.GetDB()), pg.Ping, func() { _ = pg.Close() }
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
