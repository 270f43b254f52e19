package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Wait blocks until SIGINT or SIGTERM, then gracefully shuts down the given
// HTTP servers within the timeout.
func Wait(timeout time.Duration, logger *zap.Logger, servers ...*http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server forced to shutdown", zap.Error(err))
		}
	}
	logger.Info("Servers exited properly")
}
