// Package main runs the booth registration HTTP server: public intake,
// the token-assignment webhook, and the staff dashboard API.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/certinal/booth-backend/config"
	"github.com/certinal/booth-backend/internal/email"
	"github.com/certinal/booth-backend/internal/middleware"
	"github.com/certinal/booth-backend/internal/review"
	"github.com/certinal/booth-backend/internal/store"
	"github.com/certinal/booth-backend/internal/submit"
	"github.com/certinal/booth-backend/internal/tokens"
	"github.com/certinal/booth-backend/internal/worker"
	"github.com/certinal/booth-backend/pkg/queue"
	"github.com/certinal/booth-backend/pkg/redis"
	"github.com/certinal/booth-backend/pkg/response"
	"github.com/certinal/booth-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// The store client tolerates missing credentials at startup and
	// reports ConfigError on first use instead.
	storeClient := store.New(store.Config{
		URL:     cfg.Store.URL,
		APIKey:  cfg.Store.APIKey,
		Timeout: cfg.Store.Timeout(),
	}, logger)

	emailClient := email.New(email.Config{
		BaseURL:     cfg.Email.BaseURL,
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		Timeout:     cfg.Email.Timeout(),
	}, logger)

	// Redis drives the registration-created event queue. Without it the
	// webhook trigger path still covers token assignment.
	var jobQueue *queue.Queue
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, event queue disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
	}

	var archiver review.Archiver
	if cfg.AWS.ExportsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			ExportsBucket:   cfg.AWS.ExportsBucket,
		}, logger)
		if err != nil {
			logger.Warn("export archival disabled", zap.Error(err))
		} else {
			archiver = s3Client
		}
	}

	assigner := tokens.NewAssigner(storeClient, cfg.Store.Table, emailClient, cfg.Event, logger)
	webhookHandler := tokens.NewWebhookHandler(assigner, logger)

	var events submit.Events
	if jobQueue != nil {
		events = jobQueue
	}
	submitService := submit.NewService(storeClient, cfg.Store.Table, events, logger)
	submitHandler := submit.NewHandler(submitService, logger)

	session := review.NewSession(storeClient, cfg.Store.Table, logger)
	defer session.Close()
	if sub, err := storeClient.Subscribe(ctx, cfg.Store.Table, func() {
		_ = session.Refresh(context.Background())
	}); err != nil {
		logger.Warn("store change subscription disabled", zap.Error(err))
	} else {
		session.Watch(sub)
	}
	reviewHandler := review.NewHandler(session, archiver, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: booth registration
	router.POST("/register", submitHandler.Register)

	// Store trigger (fires once per inserted row)
	router.POST("/webhooks/registration-created", webhookHandler.RegistrationCreated)

	// Staff dashboard (external access control in front of this service)
	admin := router.Group("/admin")
	{
		admin.GET("/registrations", reviewHandler.List)
		admin.POST("/registrations/refresh", reviewHandler.Refresh)
		admin.POST("/registrations/:id/edit", reviewHandler.BeginEdit)
		admin.DELETE("/registrations/edit", reviewHandler.CancelEdit)
		admin.PATCH("/registrations/:id", reviewHandler.CommitEdit)
		admin.GET("/registrations/export", reviewHandler.Export)
		admin.GET("/registrations/stats", reviewHandler.Stats)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process consumer for queued registration events.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if jobQueue != nil {
		processor := worker.NewRegistrationProcessor(assigner, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("registration worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	session.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
