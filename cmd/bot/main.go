package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/yemyatmin/shop-assistant/internal/adapters/telegram"
	"github.com/yemyatmin/shop-assistant/internal/bootstrap"
	"github.com/yemyatmin/shop-assistant/internal/config"
	"github.com/yemyatmin/shop-assistant/internal/observability/logging"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("bot", cfg.LogLevel))

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("bot")
	app.ObserveTurns(m.PipelineObserver("bot"))

	bot, err := telegram.New(cfg.TelegramBotToken, app.Chat, app.Memory, m, "bot")
	if err != nil {
		log.Fatalf("telegram bot error: %v", err)
	}

	if err := bot.Run(ctx); err != nil {
		log.Fatalf("telegram bot stopped: %v", err)
	}
}
