package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/book-agent/internal/bootstrap"
	"github.com/kirillkom/book-agent/internal/config"
	"github.com/kirillkom/book-agent/internal/observability/logging"
	"github.com/kirillkom/book-agent/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("worker", "info").Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetricsHandler(workerMetrics),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeBookIngested(ctx, func(handlerCtx context.Context, bookID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartBook()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, bookID)
		workerMetrics.FinishBook("worker", time.Since(start), processErr)

		if processErr == nil {
			if book, err := app.Books.GetByID(processCtx, bookID); err == nil {
				workerMetrics.ObserveQueueLag("worker", start.Sub(book.CreatedAt))
				workerMetrics.ObserveChunksIndexed("worker", book.ChunkCount)
			}
		}
		return processErr
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}

func workerMetricsHandler(m *metrics.WorkerMetrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", m.Handler())
	return mux
}
