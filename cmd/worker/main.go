// Package main runs the standalone registration worker: consumes
// registration-created events and performs token assignment plus the
// confirmation email.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/certinal/booth-backend/config"
	"github.com/certinal/booth-backend/internal/email"
	"github.com/certinal/booth-backend/internal/store"
	"github.com/certinal/booth-backend/internal/tokens"
	"github.com/certinal/booth-backend/internal/worker"
	"github.com/certinal/booth-backend/pkg/queue"
	"github.com/certinal/booth-backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

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

	assigner := tokens.NewAssigner(storeClient, cfg.Store.Table, emailClient, cfg.Event, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewRegistrationProcessor(assigner, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
