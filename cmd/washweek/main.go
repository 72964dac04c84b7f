package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/washweek/washweek/internal/app"
	"github.com/washweek/washweek/internal/bot"
	"github.com/washweek/washweek/internal/schedule"
	"github.com/washweek/washweek/internal/store"
	"github.com/washweek/washweek/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error("connect telegram", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.PublicURL != "" {
		if err := registerWebhook(botAPI, cfg); err != nil {
			logger.Error("register webhook", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("webhook registered", slog.String("url", cfg.PublicURL+"/bot/<secret>"))
	}

	dedupe := bot.NewDeduper(redisClient, 24*time.Hour, logger)
	botHandler := bot.NewHandler(logger, service, botAPI, dedupe, cfg.WebhookSecret)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		BotHandler: botHandler,
		JobHandler: jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server shut down")
}

func registerWebhook(botAPI *tgbotapi.BotAPI, cfg *app.Config) error {
	wh, err := tgbotapi.NewWebhook(cfg.PublicURL + "/bot/" + cfg.WebhookSecret)
	if err != nil {
		return err
	}
	_, err = botAPI.Request(wh)
	return err
}
