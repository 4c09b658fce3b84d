package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"propwatch/internal/cache"
	"propwatch/internal/client/nycopendata"
	"propwatch/internal/config"
	cronrunner "propwatch/internal/cron"
	"propwatch/internal/db"
	"propwatch/internal/handler"
	"propwatch/internal/logger"
	"propwatch/internal/queue"
	gormrepository "propwatch/internal/repository/gorm"
	"propwatch/internal/service"
)

func main() {
	configPath := os.Getenv("PW_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	envOnly := os.Getenv("PW_ENV_ONLY") == "true"

	cfg, err := config.Load(configPath, envOnly)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close(database) //nolint:errcheck

	if err := db.SetTimezone(database, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set session timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(database); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	var responseCache *cache.Cache
	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close() //nolint:errcheck
		responseCache = cache.New(rdb, cfg.Cache.TTL, log)
	}

	openData := nycopendata.NewClient(nycopendata.Options{
		HTTPClient:     &http.Client{Timeout: cfg.OpenData.Timeout},
		BaseURL:        cfg.OpenData.BaseURL,
		AppToken:       cfg.OpenData.AppToken,
		ComplaintLimit: cfg.OpenData.ComplaintLimit,
		Cache:          responseCache,
	})

	repo := gormrepository.New(database.Gorm)

	deltaSvc := &service.DeltaSyncService{
		Repo:             repo,
		Client:           openData,
		Logger:           log,
		LookbackDays:     cfg.Sync.LookbackDays,
		SweepConcurrency: cfg.Sync.SweepConcurrency,
	}
	hazardSvc := &service.HazardService{Repo: repo, Logger: log}
	valuationSvc := &service.ValuationService{
		Repo:             repo,
		Client:           openData,
		Logger:           log,
		SweepConcurrency: cfg.Sync.SweepConcurrency,
	}
	conditionSvc := &service.ConditionService{Repo: repo, Logger: log}

	asynqClient := queue.NewClient(cfg.Redis)
	defer asynqClient.Close() //nolint:errcheck
	enqueuer := queue.NewEnqueuer(asynqClient, cfg.Queue.MaxRetry)

	worker := queue.NewServer(cfg.Redis, cfg.Queue, log)
	mux := queue.NewMux(queue.Handlers{
		Delta:     deltaSvc,
		Hazard:    hazardSvc,
		Valuation: valuationSvc,
		Condition: conditionSvc,
		Logger:    log,
	})
	if err := worker.Start(mux); err != nil {
		log.Fatal("failed to start worker server", zap.Error(err))
	}

	var runner *cronrunner.Runner
	if cfg.Cron.Enabled {
		runner = cronrunner.New(log, ctx)
		if err := cronrunner.RegisterIngestionSchedules(runner, cfg.Cron, enqueuer, log); err != nil {
			log.Fatal("failed to register schedules", zap.Error(err))
		}
		runner.Start()
	}

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: database.Gorm}
	healthHandler.Register(engine)
	adminHandler := &handler.AdminHandler{
		Repo:     repo,
		Enqueuer: enqueuer,
		Cache:    responseCache,
		Logger:   log,
	}
	adminHandler.Register(engine)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	if runner != nil {
		runner.Stop()
	}
	worker.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}

	log.Info("shutdown complete")
}
