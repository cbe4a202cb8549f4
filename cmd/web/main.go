package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tool-rack-lookup/internal"
	"tool-rack-lookup/internal/config"
	"tool-rack-lookup/internal/logger"
)

func main() {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	srv, err := internal.NewServer(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Close()

	zl.Info("starting tool rack lookup",
		zap.String("addr", cfg.ListenAddr),
		zap.String("environment", cfg.Environment),
		zap.Bool("cache", cfg.CacheEnabled()),
		zap.Bool("metrics", cfg.EnableMetrics),
		zap.Float64("rate_limit_rps", cfg.RateLimitRPS),
		zap.Strings("image_hosts", cfg.ImageHosts),
	)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	return serve(ctx, zl, newHTTPServer(srv.Router), ln, cfg.ShutdownTimeout)
}

// newHTTPServer leaves BaseContext unset so request contexts are not tied to
// the signal context; only Shutdown ends in-flight requests.
func newHTTPServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}

// serve runs httpServer on ln until ctx is done, then drains in-flight
// requests for up to timeout.
func serve(ctx context.Context, zl *zap.Logger, httpServer *http.Server, ln net.Listener, timeout time.Duration) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		zl.Info("shutting down", zap.Duration("timeout", timeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		zl.Info("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}
