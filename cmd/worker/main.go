package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"

	"github.com/washweek/washweek/internal/app"
	"github.com/washweek/washweek/internal/schedule"
	"github.com/washweek/washweek/internal/store"
	"github.com/washweek/washweek/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}
	anchor, err := cfg.AnchorWeekday()
	if err != nil {
		logger.Error("parse reset weekday", slog.Any("error", err))
		os.Exit(1)
	}

	periods := schedule.NewPeriodManager(loc, anchor)
	gateway := store.NewClient(store.Config{
		BaseURL:   cfg.JSONBinURL,
		BinID:     cfg.JSONBinID,
		MasterKey: cfg.JSONBinKey,
		Capacity:  cfg.SlotsPerDay,
		Timeout:   cfg.JSONBinTimeout,
	}, periods, logger)
	service := schedule.NewService(gateway, periods, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("connect telegram", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("close jobs client", slog.Any("error", err))
		}
	}()

	rotationJob := jobs.NewRotationJob(service, client, logger)
	broadcastJob := jobs.NewBroadcastJob(service, botAPI, logger)

	// Same cadence as the original design's polling thread.
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Location:  loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRotationCheck, Handler: rotationJob.Handle},
			{Type: jobs.TaskBroadcastReset, Handler: broadcastJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: jobs.NewRotationCheckTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
