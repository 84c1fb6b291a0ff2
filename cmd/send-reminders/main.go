// cmd/send-reminders/main.go runs one reminder sweep and exits. It always
// exits 0 once the sweep has started so an external cron sees success.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"clinic-notify-workers/internal/common/aws"
	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/database"
	"clinic-notify-workers/internal/common/docstore"
	"clinic-notify-workers/internal/common/gateway"
	"clinic-notify-workers/internal/common/logger"
	str "clinic-notify-workers/internal/workers/reminders/send-tomorrow-reminders"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store docstore.Store
	switch cfg.Store.Driver {
	case "mongo":
		mc, err := database.NewMongo(ctx, cfg.Store.Mongo)
		if err != nil {
			zapLog.Fatal("mongo connect failed", zap.Error(err))
		}
		defer mc.Close(context.Background())
		store = docstore.NewMongoStore(mc.DB)
	default:
		pg, err := database.NewPostgres(cfg.Store.Postgres)
		if err != nil {
			zapLog.Fatal("postgres connect failed", zap.Error(err))
		}
		defer pg.Close()
		store = docstore.NewPostgresStore(pg.GetDB())
	}

	opts := str.HandlerOptions{
		AppConfig: cfg,
		Logger:    log,
		Store:     store,
		Sender:    gateway.NewClient(cfg.Gateway, nil),
	}

	if cfg.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Redis)
		if err == nil && rc.Ping(ctx) == nil {
			defer rc.Close()
			opts.Redis = rc.GetClient()
		} else {
			zapLog.Warn("redis unavailable, running without overlap lock")
		}
	}

	if cfg.Notifications.SummaryEmail.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Warn("ses client init failed, summary email disabled", zap.Error(err))
		} else {
			opts.Mailer = ses
		}
	}

	handler, err := str.NewHandler(opts)
	if err != nil {
		zapLog.Fatal("failed to create send-tomorrow-reminders handler", zap.Error(err))
	}

	if err := handler.Run(ctx); err != nil {
		zapLog.Error("reminder sweep aborted", zap.Error(err))
	}
}
