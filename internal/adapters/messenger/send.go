package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

func (s *Service) sendText(ctx context.Context, recipientID, text string) error {
	return s.postMessage(ctx, map[string]any{
		"recipient": map[string]string{"id": recipientID},
		"message":   map[string]string{"text": text},
	})
}

func (s *Service) sendTypingOn(ctx context.Context, recipientID string) error {
	return s.postMessage(ctx, map[string]any{
		"recipient":     map[string]string{"id": recipientID},
		"sender_action": "typing_on",
	})
}

func (s *Service) postMessage(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := s.cfg.GraphBaseURL + "/me/messages?access_token=" + url.QueryEscape(s.cfg.PageAccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			return fmt.Errorf("send api status: %s", resp.Status)
		}
		return fmt.Errorf("send api status: %s: %s", resp.Status, msg)
	}
	return nil
}
