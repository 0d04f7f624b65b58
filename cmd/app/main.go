package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	apiHttp "github.com/mrarejimmyz/SybilShield/internal/api/http"
	"github.com/mrarejimmyz/SybilShield/internal/cache"
	"github.com/mrarejimmyz/SybilShield/internal/config"
	"github.com/mrarejimmyz/SybilShield/internal/db"
	"github.com/mrarejimmyz/SybilShield/internal/limiter"
	"github.com/mrarejimmyz/SybilShield/internal/queue/asynqserver"
	"github.com/mrarejimmyz/SybilShield/internal/queue/client"
	"github.com/mrarejimmyz/SybilShield/internal/repository"
	"github.com/mrarejimmyz/SybilShield/internal/server"
	"github.com/mrarejimmyz/SybilShield/internal/service"
	"github.com/mrarejimmyz/SybilShield/internal/store"
	"github.com/mrarejimmyz/SybilShield/internal/verification"
	"github.com/mrarejimmyz/SybilShield/internal/worker"
	"github.com/mrarejimmyz/SybilShield/pkg/hash"
	"github.com/mrarejimmyz/SybilShield/pkg/logger"
	"github.com/mrarejimmyz/SybilShield/pkg/otp"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	// Dependencies
	appLogger := logger.SetupLogger(cfg.Env)

	appLogger.Info("starting sybilshield api", zap.String("env", cfg.Env))
	appLogger.Debug("debug messages are enabled")

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		appLogger.Error("mysql connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		err = dbMySQL.Close()
		if err != nil {
			appLogger.Error("error when closing", zap.Error(err))
		}
	}()
	appLogger.Info("mysql connection done")

	// Init redis
	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		appLogger.Error("redis connect problem", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		err = redisClient.Close()
		if err != nil {
			appLogger.Error("error when closing redis", zap.Error(err))
		}
	}()
	appLogger.Info("redis connection done")

	redisStore := store.NewRedis(redisClient)
	buckets := limiter.NewTokenBucket(redisStore)
	hasher := hash.NewSHA256Hasher(cfg.Auth.APIKeySalt)
	otpGenerator := otp.NewGOTPGenerator()

	// Verification methods
	manager := verification.NewManager(redisStore, cfg.Verification.TTL, appLogger)
	manager.Register(verification.NewSocial("twitter", redisStore, cfg.Verification.TTL, nil))
	manager.Register(verification.NewSocial("github", redisStore, cfg.Verification.TTL, nil))
	manager.Register(verification.NewDID("did:web", redisStore, cfg.Verification.TTL, nil))
	manager.Register(verification.NewCaptcha(redisStore, cfg.Verification.TTL, cfg.Verification.MaxAttempts))
	manager.Register(verification.NewVideo(redisStore, cfg.Verification.TTL, cfg.Verification.MaxAttempts, otpGenerator, nil))

	// Task queue
	asynqClient := asynq.NewClient(asynqserver.RedisOptions(cfg.Cache))
	defer func() {
		if err := asynqClient.Close(); err != nil {
			appLogger.Error("error when closing asynq client", zap.Error(err))
		}
	}()
	client.SetClient(asynqClient)

	workers := worker.NewWorkers(worker.Deps{Config: cfg})
	queueServer, queueMux := asynqserver.New(cfg.Cache, workers)
	go func() {
		if err := queueServer.Run(queueMux); err != nil {
			appLogger.Error("error occurred while running queue server", zap.Error(err))
		}
	}()

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL)
	services := service.NewServices(service.Deps{
		Config:   cfg,
		Store:    redisStore,
		Manager:  manager,
		Repos:    repos,
		Hasher:   hasher,
		Notifier: client.NewNotifier(cfg.Webhook),
		Logger:   appLogger,
	})
	handlers := apiHttp.NewHandlers(services, buckets, cfg)

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	appLogger.Info("server started")

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	queueServer.Shutdown()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Error("failed to stop server", zap.Error(err))
	}

	appLogger.Info("app stopped")
}
