package messenger

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yemyatmin/shop-assistant/internal/core/domain"
	"github.com/yemyatmin/shop-assistant/internal/core/ports"
	"github.com/yemyatmin/shop-assistant/internal/observability/metrics"
)

// messageCharLimit is the Messenger Send API cap per text message.
const messageCharLimit = 2000

type Config struct {
	VerifyToken     string
	PageAccessToken string
	GraphBaseURL    string
	RatePerMinute   int
	RateBurst       int
	ServiceName     string
}

type Service struct {
	chat    ports.ChatService
	memory  ports.TurnMemory
	events  ports.IngestionEvents
	metrics *metrics.HTTPServerMetrics
	cfg     Config

	httpClient *http.Client
	limiters   *senderLimiters
}

func NewService(
	chat ports.ChatService,
	memory ports.TurnMemory,
	events ports.IngestionEvents,
	m *metrics.HTTPServerMetrics,
	cfg Config,
) *Service {
	if cfg.GraphBaseURL == "" {
		cfg.GraphBaseURL = "https://graph.facebook.com/v19.0"
	}
	cfg.GraphBaseURL = strings.TrimRight(cfg.GraphBaseURL, "/")
	if cfg.ServiceName == "" {
		cfg.ServiceName = "api"
	}
	return &Service{
		chat:       chat,
		memory:     memory,
		events:     events,
		metrics:    m,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiters:   newSenderLimiters(cfg.RatePerMinute, cfg.RateBurst),
	}
}

// verifyWebhook answers Meta's subscription handshake: echo hub.challenge
// only when the verify token matches.
func (s *Service) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" || token != s.cfg.VerifyToken {
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Messaging []struct {
			Sender struct {
				ID string `json:"id"`
			} `json:"sender"`
			Message struct {
				Text   string `json:"text"`
				IsEcho bool   `json:"is_echo"`
			} `json:"message"`
		} `json:"messaging"`
	} `json:"entry"`
}

func (s *Service) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.Object != "page" {
		http.Error(w, "unsupported object", http.StatusBadRequest)
		return
	}

	for _, entry := range payload.Entry {
		for _, event := range entry.Messaging {
			senderID := event.Sender.ID
			text := strings.TrimSpace(event.Message.Text)
			if senderID == "" || text == "" || event.Message.IsEcho {
				continue
			}
			s.handleMessage(r.Context(), senderID, text)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("EVENT_RECEIVED"))
}

func (s *Service) handleMessage(ctx context.Context, senderID, text string) {
	if !s.limiters.allow(senderID) {
		slog.Warn("sender_rate_limited", "sender_id", senderID)
		return
	}

	start := time.Now()
	if err := s.sendTypingOn(ctx, senderID); err != nil {
		slog.Warn("typing_indicator_failed", "sender_id", senderID, "error", err)
	}

	answer, err := s.chat.AnswerStream(ctx, domain.ChatRequest{
		UserID:    senderID,
		Utterance: text,
		PriorTurn: s.memory.Render(senderID),
	}, nil)
	s.metrics.RecordTurn(s.cfg.ServiceName, "messenger", err, time.Since(start))
	if err != nil {
		slog.Error("chat_turn_failed", "sender_id", senderID, "error", err)
		if sendErr := s.sendText(ctx, senderID, apologyText); sendErr != nil {
			slog.Error("apology_send_failed", "sender_id", senderID, "error", sendErr)
		}
		return
	}

	for _, part := range splitMessage(answer, messageCharLimit) {
		if err := s.sendText(ctx, senderID, part); err != nil {
			slog.Error("message_send_failed", "sender_id", senderID, "error", err)
			return
		}
	}
	s.memory.Record(senderID, text, answer)
}

const apologyText = "တောင်းပန်ပါတယ်၊ အခုလောလောဆယ် ပြဿနာရှိနေပါတယ်။ ခဏနေမှ ပြန်မေးပေးပါ။"

// splitMessage cuts on rune boundaries so multi-byte text never breaks
// mid-character.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var out []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}
