package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	err = app.Entry.Bootstrap(bootCtx)
	cancelBoot()
	if err != nil {
		logger.Error("Failed to prepare workbook tables", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}
	app.Book.StartCleanup(time.Minute)

	warmer, err := worker.NewRateWarmer(app.Resolver, cfg.RateWarmSchedule, time.Now, logger.WithComponent(log.ComponentWorker))
	if err != nil {
		logger.Error("Invalid rate warm schedule", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, app.Entry, app.Dashboard, apphttp.Options{
		Logger: logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to initialize HTTP server", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		select {
		case <-warmer.Stop().Done():
		case <-ctx.Done():
		}
		if err := app.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	warmer.Start()
	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"mirror", app.Backend.Mirror,
		"next_rate_warm", warmer.Next())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
