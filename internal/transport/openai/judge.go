package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultJudgeModel = "gpt-4"

// Judge is a chat-completion backend for match evaluation. It implements
// judge.Generator.
type Judge struct {
	client      *openai.Client
	model       string
	temperature float32
}

// JudgeConfig holds the judging backend settings.
type JudgeConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// NewJudge creates an OpenAI judging backend.
func NewJudge(cfg *JudgeConfig) *Judge {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultJudgeModel
	}

	return &Judge{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.Temperature,
	}
}

// GenerateContent runs one chat completion with a system and user message
// and returns the raw assistant text.
func (j *Judge) GenerateContent(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: j.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}

	resp, err := j.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

func (j *Judge) Model() string { return j.model }
