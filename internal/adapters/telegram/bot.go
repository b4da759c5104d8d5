package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

// editEveryDeltas balances perceived streaming against Telegram's edit rate
// limits.
const editEveryDeltas = 15

const placeholderText = "စဉ်းစားနေပါတယ်..."

const apologyText = "တောင်းပန်ပါတယ်၊ အခုလောလောဆယ် ပြဿနာရှိနေပါတယ်။ ခဏနေမှ ပြန်မေးပေးပါ။"

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot answers Telegram chats over long polling. The in-progress answer is
// streamed into one message by editing it as deltas arrive.
type Bot struct {
	api         *tgbotapi.BotAPI
	client      telegramAPI
	chat        ports.ChatService
	memory      ports.TurnMemory
	metrics     *metrics.HTTPServerMetrics
	serviceName string
}

func New(token string, chat ports.ChatService, memory ports.TurnMemory, m *metrics.HTTPServerMetrics, serviceName string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if serviceName == "" {
		serviceName = "bot"
	}
	return &Bot{
		api:         api,
		client:      api,
		chat:        chat,
		memory:      memory,
		metrics:     m,
		serviceName: serviceName,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	slog.Info("telegram_bot_started", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleTurn(ctx, update.Message.Chat.ID, update.Message.Text)
		}
	}
}

func (b *Bot) handleTurn(ctx context.Context, chatID int64, text string) {
	userID := strconv.FormatInt(chatID, 10)
	start := time.Now()

	placeholder, err := b.client.Send(tgbotapi.NewMessage(chatID, placeholderText))
	if err != nil {
		slog.Error("placeholder_send_failed", "chat_id", chatID, "error", err)
		return
	}

	var accumulated string
	deltas := 0
	answer, err := b.chat.AnswerStream(ctx, domain.ChatRequest{
		UserID:    userID,
		Utterance: text,
		PriorTurn: b.memory.Render(userID),
	}, func(delta string) error {
		accumulated += delta
		deltas++
		if deltas%editEveryDeltas == 0 {
			b.editMessage(chatID, placeholder.MessageID, accumulated+" ")
		}
		return nil
	})
	b.metrics.RecordTurn(b.serviceName, "telegram", err, time.Since(start))
	if err != nil {
		slog.Error("chat_turn_failed", "chat_id", chatID, "error", err)
		b.editMessage(chatID, placeholder.MessageID, apologyText)
		return
	}
	if answer == "" {
		answer = apologyText
	}

	b.editMessage(chatID, placeholder.MessageID, answer)
	if answer != apologyText {
		b.memory.Record(userID, text, answer)
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.client.Request(edit); err != nil {
		slog.Warn("message_edit_failed", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}
