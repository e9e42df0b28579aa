package services

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chachabrian/carpool-backend/internal/config"
)

var errEmptyCompletion = errors.New("empty completion")

// OpenAIWriter asks a chat model to phrase a short notification.
type OpenAIWriter struct {
	client *openai.Client
	model  string
}

func NewOpenAIWriter(cfg config.OpenAIConfig) *OpenAIWriter {
	return &OpenAIWriter{client: openai.NewClient(cfg.APIKey), model: cfg.Model}
}

func (w *OpenAIWriter) Write(ctx context.Context, system, prompt string) (string, error) {
	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   120,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}
