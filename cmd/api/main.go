package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/book-agent/internal/adapters/http"
	"github.com/kirillkom/book-agent/internal/bootstrap"
	"github.com/kirillkom/book-agent/internal/config"
	"github.com/kirillkom/book-agent/internal/observability/logging"
	"github.com/kirillkom/book-agent/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("api", "info").Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(
		app.IngestUC,
		app.Books,
		app.Retriever,
		app.AskUC,
		app.Contexts,
		serverMetrics,
		httpadapter.Options{
			Service:        "api",
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			MaxInFlight:    cfg.MaxInFlight,
			QueueWait:      time.Duration(cfg.QueueWaitMS) * time.Millisecond,
			DefaultTopK:    cfg.RetrievalTopK,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
