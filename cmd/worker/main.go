package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yemyatmin/shop-assistant/internal/bootstrap"
	"github.com/yemyatmin/shop-assistant/internal/config"
	"github.com/yemyatmin/shop-assistant/internal/observability/logging"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewWorkerMetrics("worker")

	err = app.Events.SubscribeDocumentIngest(ctx, func(handlerCtx context.Context, sourcePath string) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		m.StartJob()
		start := time.Now()
		count, err := app.Ingest.IngestFile(jobCtx, sourcePath)
		m.FinishJob("worker", "ingest", time.Since(start), err)
		if err != nil {
			return err
		}
		m.AddFragmentsIndexed("worker", count)
		slog.Info("document_ingested", "path", sourcePath, "fragments", count)
		return nil
	})
	if err != nil {
		log.Fatalf("worker ingest subscribe error: %v", err)
	}

	err = app.Events.SubscribeCatalogBackfill(ctx, func(handlerCtx context.Context) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, 15*time.Minute)
		defer cancel()

		m.StartJob()
		start := time.Now()
		count, err := app.Backfill.Backfill(jobCtx)
		m.FinishJob("worker", "backfill", time.Since(start), err)
		if err != nil {
			return err
		}
		m.AddProductsBackfilled("worker", count)
		slog.Info("catalog_backfilled", "products", count)
		return nil
	})
	if err != nil {
		log.Fatalf("worker backfill subscribe error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	server := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: mux,
	}

	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()

	slog.Info("worker_subscribed",
		"ingest_subject", cfg.NATSIngestSubject,
		"backfill_subject", cfg.NATSBackfillSubject,
	)
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
