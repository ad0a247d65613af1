// Package server holds the HTTP bootstrap shared by the services and the
// gateway: the gin router with the common middleware chain, and a Run loop
// that drains in-flight requests on shutdown.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/flathunt/platform/shared/logging"
	"github.com/flathunt/platform/shared/middleware"
	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter returns a gin engine with recovery, request ids, request logging
// and metrics installed, plus GET /health and GET /metrics.
func NewRouter(service string, logger logging.Logger, health HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.LoggingMiddleware(logger),
		middleware.Metrics(service),
	)

	router.GET("/health", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": service, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": service})
	})
	router.GET("/metrics", middleware.MetricsHandler())
	return router
}

// Run serves handler on addr until ctx is cancelled, then shuts down,
// giving in-flight requests up to shutdownTimeout to finish.
func Run(ctx context.Context, addr string, handler http.Handler, logger logging.Logger, shutdownTimeout time.Duration) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, lis, handler, logger, shutdownTimeout)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, lis net.Listener, handler http.Handler, logger logging.Logger, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server listening", "addr", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
