// Package main starts the Bolingo onboarding backend.
//
// @title                       Bolingo onboarding API
// @version                     1.0
// @description                 Chat bot webhook and mini-app backend for the Bolingo onboarding flow.
// @BasePath                    /
// @securityDefinitions.apikey  InitData
// @in                          header
// @name                        Authorization
// @description                 Mini-app launch parameters: "tma <init data>"
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Operator token: "Bearer <jwt>"
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bolingo/onboarding-bot/internal/api"
	"github.com/bolingo/onboarding-bot/internal/api/handler"
	"github.com/bolingo/onboarding-bot/internal/core/domain"
	"github.com/bolingo/onboarding-bot/internal/core/ports"
	"github.com/bolingo/onboarding-bot/internal/core/service"
	"github.com/bolingo/onboarding-bot/internal/infrastructure/db/memory"
	mongostore "github.com/bolingo/onboarding-bot/internal/infrastructure/db/mongo"
	redisstore "github.com/bolingo/onboarding-bot/internal/infrastructure/db/redis"
	"github.com/bolingo/onboarding-bot/internal/infrastructure/generator"
	"github.com/bolingo/onboarding-bot/internal/infrastructure/queue"
	"github.com/bolingo/onboarding-bot/internal/infrastructure/telegram"
	"github.com/bolingo/onboarding-bot/internal/pkg/config"
	"github.com/bolingo/onboarding-bot/pkg/logger"
)

const (
	shutdownTimeout = 10 * time.Second
	recoveryTimeout = 30 * time.Second
	dedupTTL        = 24 * time.Hour
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.Init(logger.Options{Service: "bolingo"})
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "bolingo",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Pinger{}

	// --- User store ---
	var (
		users  ports.UserRepository
		lister ports.StalledUserLister
	)
	if cfg.Mongo.URI != "" {
		store, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer closeWithTimeout(log, "mongodb", store.Close)

		repo := mongostore.NewUserRepository(store.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		users, lister = repo, repo
		readiness["mongodb"] = store
		log.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb user store")
	} else {
		repo := memory.NewUserRepository()
		users, lister = repo, repo
		log.Warn().Msg("MONGO_URI not set, user records are kept in memory")
	}

	// --- Update de-duplication ---
	var dedup handler.UpdateDeduplicator
	if cfg.Redis.Addr != "" {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
		}()

		dedup = redisstore.NewUpdateDeduplicator(client, dedupTTL)
		readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	// --- Outbound collaborators ---
	messenger := telegram.NewClient(telegram.Config{
		APIURL:   cfg.Telegram.APIURL,
		BotToken: cfg.Telegram.BotToken,
	}, logger.Component("telegram"))

	var gen ports.Generator
	if cfg.GenerationEnabled() {
		g, err := generator.NewOpenAI(generator.Config{
			APIKey:  cfg.Generation.APIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
		})
		if err != nil {
			return err
		}
		gen = g
		log.Info().Str("model", cfg.Generation.Model).Str("api_key", logger.Mask(cfg.Generation.APIKey)).
			Msg("text generation enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, descriptions use the fallback text")
	}

	if cfg.WebAppURL == "" {
		log.Warn().Msg("WEBAPP_URL not set, mini-app buttons are disabled")
	}

	// --- Workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	genQueue := queue.NewDispatcher[domain.GenerationTask]("generation", cfg.Workers, queue.GenerationTaskKey, logger.Component("queue"))
	chatQueue := queue.NewDispatcher[domain.ChatEvent]("chat", cfg.Workers, queue.ChatEventKey, logger.Component("queue"))

	onboarding := service.NewOnboardingService(users, messenger, genQueue, cfg.WebAppURL, logger.Component("onboarding"))
	worker := service.NewGenerationWorker(gen, onboarding, cfg.Generation.Timeout, logger.Component("generation"))

	genQueue.Start(workerCtx, worker.Handle)
	chatQueue.Start(workerCtx, onboarding.HandleChatEvent)

	// Tasks lost by a previous process leave their users in builder_in_progress.
	recovery := service.NewGenerationRecovery(users, lister, messenger, cfg.WebAppURL, logger.Component("recovery"))
	recoveryCtx, cancelRecovery := context.WithTimeout(ctx, recoveryTimeout)
	if _, err := recovery.Run(recoveryCtx, cfg.Generation.StalledAfter); err != nil {
		log.Error().Err(err).Msg("stalled generation sweep failed")
	}
	cancelRecovery()

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Config:     cfg,
		Onboarding: onboarding,
		Users:      users,
		ChatQueue:  chatQueue,
		Dedup:      dedup,
		Readiness:  readiness,
		Log:        logger.Component("http"),
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	// No new work can arrive once HTTP is down: finish what is buffered.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()
	for _, drain := range []func(context.Context) error{chatQueue.Drain, genQueue.Drain} {
		if err := drain(drainCtx); err != nil {
			log.Warn().Err(err).Msg("queue not drained, remaining tasks are released on next start")
		}
	}

	cancelWorkers()
	chatQueue.Wait()
	genQueue.Wait()
	log.Info().Msg("server stopped")
	return nil
}

func closeWithTimeout(log zerolog.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Warn().Err(err).Str("dependency", name).Msg("close failed")
	}
}
