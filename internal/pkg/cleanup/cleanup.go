package cleanup

import (
	"context"
	"net/http"
	"time"

	"ewsclient/internal/pkg/log_messages"
	"ewsclient/internal/pkg/logger"
)

const shutdownTimeout = 8 * time.Second

// CleanupResources stops the HTTP server first, then closes the back-off
// store connection. Either may be nil.
func CleanupResources(ctx context.Context, store interface{ Close() error }, server *http.Server) {
	logger.CtxInfo(ctx, log_messages.CleanupStarted)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.CtxError(ctx, "Failed to shutdown HTTP server", err)
		} else {
			logger.CtxInfo(ctx, "HTTP server shutdown successfully")
		}
	}

	if store != nil {
		if err := store.Close(); err != nil {
			logger.CtxError(ctx, "Failed to close Redis connection", err)
		} else {
			logger.CtxInfo(ctx, "Redis connection closed successfully")
		}
	}

	logger.CtxInfo(ctx, log_messages.CleanupCompleted)
}
