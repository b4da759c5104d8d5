package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

type apiFake struct {
	sent  []tgbotapi.MessageConfig
	edits []tgbotapi.EditMessageTextConfig
}

func (f *apiFake) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	f.sent = append(f.sent, msg)
	return tgbotapi.Message{MessageID: 100 + len(f.sent)}, nil
}

func (f *apiFake) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	edit, ok := c.(tgbotapi.EditMessageTextConfig)
	if !ok {
		return nil, errors.New("unexpected chattable")
	}
	f.edits = append(f.edits, edit)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type chatFake struct {
	deltas  []string
	err     error
	request domain.ChatRequest
}

func (f *chatFake) AnswerStream(_ context.Context, req domain.ChatRequest, onDelta func(string) error) (string, error) {
	f.request = req
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, d := range f.deltas {
		full.WriteString(d)
		if onDelta != nil {
			if err := onDelta(d); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

type memFake struct {
	rendered string
	recorded [][3]string
}

func (f *memFake) Record(userID, userMessage, botMessage string) {
	f.recorded = append(f.recorded, [3]string{userID, userMessage, botMessage})
}

func (f *memFake) Render(string) string { return f.rendered }

func newTestBot(chat *chatFake, mem *memFake, api *apiFake) *Bot {
	return &Bot{
		client:      api,
		chat:        chat,
		memory:      mem,
		metrics:     metrics.NewHTTPServerMetrics("bot-test"),
		serviceName: "bot-test",
	}
}

func TestHandleTurnStreamsIntoOneMessage(t *testing.T) {
	deltas := make([]string, 0, 31)
	for i := 0; i < 31; i++ {
		deltas = append(deltas, "x")
	}
	api := &apiFake{}
	chat := &chatFake{deltas: deltas}
	mem := &memFake{rendered: "User: previous\nAssistant: answer"}
	bot := newTestBot(chat, mem, api)

	bot.handleTurn(context.Background(), 42, "question")

	if len(api.sent) != 1 || api.sent[0].Text != placeholderText {
		t.Fatalf("placeholder not sent: %+v", api.sent)
	}
	// 2 progress edits at deltas 15 and 30, plus the final edit.
	if len(api.edits) != 3 {
		t.Fatalf("edits = %d, want 3", len(api.edits))
	}
	if api.edits[0].Text != strings.Repeat("x", 15)+" " {
		t.Fatalf("first progress edit = %q", api.edits[0].Text)
	}
	final := api.edits[len(api.edits)-1]
	if final.Text != strings.Repeat("x", 31) {
		t.Fatalf("final edit = %q", final.Text)
	}
	for _, edit := range api.edits {
		if edit.MessageID != 101 {
			t.Fatalf("edit targets wrong message: %d", edit.MessageID)
		}
	}

	if chat.request.UserID != "42" || chat.request.PriorTurn != mem.rendered {
		t.Fatalf("chat request = %+v", chat.request)
	}
	if len(mem.recorded) != 1 || mem.recorded[0][2] != strings.Repeat("x", 31) {
		t.Fatalf("memory = %+v", mem.recorded)
	}
}

func TestHandleTurnErrorEditsApologyWithoutMemory(t *testing.T) {
	api := &apiFake{}
	chat := &chatFake{err: errors.New("model down")}
	mem := &memFake{}
	bot := newTestBot(chat, mem, api)

	bot.handleTurn(context.Background(), 7, "hi")

	if len(api.edits) != 1 || api.edits[0].Text != apologyText {
		t.Fatalf("apology edit missing: %+v", api.edits)
	}
	if len(mem.recorded) != 0 {
		t.Fatalf("failed turn must not be recorded: %+v", mem.recorded)
	}
}

func TestHandleTurnEmptyAnswerFallsBackToApology(t *testing.T) {
	api := &apiFake{}
	chat := &chatFake{deltas: nil}
	mem := &memFake{}
	bot := newTestBot(chat, mem, api)

	bot.handleTurn(context.Background(), 7, "hi")

	final := api.edits[len(api.edits)-1]
	if final.Text != apologyText {
		t.Fatalf("final edit = %q", final.Text)
	}
	if len(mem.recorded) != 0 {
		t.Fatalf("empty answer must not be recorded: %+v", mem.recorded)
	}
}
