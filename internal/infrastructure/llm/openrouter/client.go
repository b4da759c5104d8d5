package openrouter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yemyatmin/shop-assistant/internal/core/ports"
	"github.com/yemyatmin/shop-assistant/internal/infrastructure/resilience"
)

// Client generates text through OpenRouter's OpenAI-compatible chat API.
// Non-streaming calls run under the retry executor; a stream is never
// retried once deltas may have been forwarded.
type Client struct {
	api      *openai.Client
	model    string
	executor *resilience.Executor
}

var _ ports.TextGenerator = (*Client)(nil)

func New(baseURL, apiKey, model string, executor *resilience.Executor) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		api:      openai.NewClientWithConfig(cfg),
		model:    model,
		executor: executor,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var content string
	err := c.executor.Execute(ctx, "openrouter.generate", func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openrouter returned no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	}, classifyChatError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate completion", err)
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) GenerateStream(ctx context.Context, prompt string, onDelta func(string) error) error {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return wrapTemporaryIfNeeded("open completion stream", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive stream delta: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := onDelta(delta); err != nil {
			return err
		}
	}
}
