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

	"github.com/yemyatmin/shop-assistant/internal/adapters/messenger"
	"github.com/yemyatmin/shop-assistant/internal/bootstrap"
	"github.com/yemyatmin/shop-assistant/internal/config"
	"github.com/yemyatmin/shop-assistant/internal/observability/logging"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	app.ObserveTurns(m.PipelineObserver("api"))
	svc := messenger.NewService(app.Chat, app.Memory, app.Events, m, messenger.Config{
		VerifyToken:     cfg.MetaVerifyToken,
		PageAccessToken: cfg.MetaPageAccessToken,
		GraphBaseURL:    cfg.MetaGraphBaseURL,
		RatePerMinute:   cfg.SenderRatePerMinute,
		RateBurst:       cfg.SenderRateBurst,
		ServiceName:     "api",
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      svc.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_error", "error", err)
	}
}
