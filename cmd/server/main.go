package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "retail-erp/internal/adapters/web"
	"retail-erp/internal/bootstrap"
	"retail-erp/internal/config"
	"retail-erp/internal/logger"
	"retail-erp/internal/metrics"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	rt, err := bootstrap.Build(ctx, cfg, m, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer rt.Close()

	handler, err := webAdapter.NewHandler(rt.Service, webAdapter.Config{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		CookieSecure:       cfg.Server.CookieSecure,
		SessionTTL:         cfg.Server.SessionTTL,
		LoginRatePerMinute: cfg.Server.LoginRatePerMinute,
		Logger:             log,
		Metrics:            m,
	})
	if err != nil {
		log.Fatal("failed to build handler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Backend.Driver))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server", zap.Error(err))
	}
	log.Info("server stopped")
}
