package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	_ "github.com/examhub/examhub-api/api/swagger"
	"github.com/examhub/examhub-api/internal/authz"
	"github.com/examhub/examhub-api/internal/handler"
	"github.com/examhub/examhub-api/internal/repository"
	"github.com/examhub/examhub-api/internal/router"
	"github.com/examhub/examhub-api/internal/service"
	"github.com/examhub/examhub-api/pkg/cache"
	"github.com/examhub/examhub-api/pkg/config"
	"github.com/examhub/examhub-api/pkg/database"
	"github.com/examhub/examhub-api/pkg/logger"
	"github.com/examhub/examhub-api/pkg/storage"
)

// @title ExamHub API
// @version 1.0.0
// @description Student exam paper sharing platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The catalog works without Redis, it just loses its cache.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewS3Store(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object storage", "error", err)
	}

	policy := authz.NewPolicy(cfg.Admin.Emails)
	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	paperRepo := repository.NewPaperRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.StatsTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, policy, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	paperSvc := service.NewPaperService(paperRepo, userRepo, store, cacheSvc, metricsSvc, policy, validate, logr, cfg.Uploads.MaxFileSizeBytes, cfg.Cache.ValueTTL)
	statsSvc := service.NewStatsService(paperRepo, userRepo, cacheSvc, logr, cfg.Cache.StatsTTL)
	exportSvc := service.NewExportService(paperRepo, nil, nil, logr)

	engine := router.New(router.Dependencies{
		Config:       cfg,
		Logger:       logr,
		DB:           db,
		Redis:        redisClient,
		Policy:       policy,
		Auth:         authSvc,
		Metrics:      metricsSvc,
		AuthHandler:  handler.NewAuthHandler(authSvc),
		PaperHandler: handler.NewPaperHandler(paperSvc, cfg.Uploads.MaxFileSizeBytes),
		StatsHandler: handler.NewStatsHandler(statsSvc),
		AdminHandler: handler.NewAdminHandler(paperSvc, statsSvc, exportSvc, metricsSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	_ = cacheRepo.Close()
}
