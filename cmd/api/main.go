package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickcook/quickcook/internal/config"
	"github.com/quickcook/quickcook/internal/db"
	httpx "github.com/quickcook/quickcook/internal/http"
	"github.com/quickcook/quickcook/internal/observability"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing is optional; only wire it when an endpoint is configured
	var shutdownTracer func(context.Context) error

	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)

		var err error
		shutdownTracer, err = observability.InitTracer(ctx, "quickcook-api", cfg.OTLPEndpoint)

		cancel()

		if err != nil {
			log.Error("tracer init failed", "err", err)
			shutdownTracer = nil
		}
	}

	dbCtx, dbCancel := config.WithTimeout(5 * time.Second)

	pool, err := db.NewPool(dbCtx, cfg.DBURL)

	dbCancel()

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	router := httpx.NewRouter(log, pool, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if shutdownTracer != nil {
			if err := shutdownTracer(ctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
