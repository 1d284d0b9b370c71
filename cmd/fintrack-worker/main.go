package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting fintrack-worker")

	local, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local workbook", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	remote, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		_ = local.Close()
		os.Exit(1)
	}

	broker, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		_ = local.Close()
		os.Exit(1)
	}

	mirror := worker.NewMirrorWorker(local, remote, worker.MirrorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	}, logger.WithComponent(log.ComponentMirror))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := mirror.Stop(ctx); err != nil {
			logger.Error("Mirror worker stop error", log.FieldError, err)
		}
		if err := broker.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err)
		}
		if err := local.Close(); err != nil {
			logger.Error("Local workbook close error", log.FieldError, err)
		}
	})

	if err := mirror.Start(ctx); err != nil {
		logger.Error("Failed to start mirror worker", log.FieldError, err)
		os.Exit(1)
	}

	// The poll loop keeps replaying if the consumer dies, so a broker outage
	// only delays the mirror.
	go func() {
		err := broker.ConsumeSheetOps(ctx, mirror.HandleMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption stopped", log.FieldError, err)
		}
	}()

	logger.Info("Mirror worker running",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"queue", cfg.AMQPQueue,
		"poll_interval", cfg.SyncInterval)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
