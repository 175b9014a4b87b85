package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ewsclient/internal/app/router"
	"ewsclient/internal/pkg/cleanup"
	"ewsclient/internal/pkg/config"
	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"
	"ewsclient/internal/pkg/otel"

	"go.uber.org/zap"
)

// setupServices loads configuration and initializes the logger
func setupServices() (*config.AppConfig, error) {
	cfg, err := config.LoadFromConfig()
	if err != nil {
		logger.CtxError(context.Background(), log_messages.FailedLoadingConfiguration, err)
		return nil, err
	}
	logger.Init(cfg.Logging.LogLevel)

	return cfg, nil
}

// startHTTPServer starts the HTTP server in a goroutine
func startHTTPServer(ctx context.Context, port int, engine http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.CtxError(ctx, log_messages.ServerStartFailure, err)
		}
	}()

	return srv
}

// waitForShutdownSignal waits for shutdown signals and returns when received
func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := setupServices()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	shutdownTracing, err := otel.Setup(ctx, cfg.Server.ServiceName, cfg.Server.OtelCollectorURL)
	if err != nil {
		logger.CtxError(ctx, "Error setting up OTLP", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	engine := router.SetupRouter(ctx, cfg.Server.ServiceName, cfg.Mock)
	server := startHTTPServer(ctx, cfg.Server.Port, engine)
	logger.CtxInfo(ctx, "EWS mock endpoint listening",
		zap.String("service", cfg.Server.ServiceName),
		zap.Int("port", cfg.Server.Port),
		zap.Uint64("back_off_ms", cfg.Mock.BackOffMilliseconds),
	)

	waitForShutdownSignal()

	logger.CtxInfo(ctx, log_messages.ServerShutdown)
	cancel()
	cleanup.CleanupResources(ctx, nil, server)
	if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
		logger.CtxError(ctx, "Failed to flush traces", err)
	}

	logger.CtxInfo(ctx, log_messages.ServerExiting)
}
