// internal/ai/openai.go
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leave-bot/pkg/officetime"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 30 * time.Second

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIAssistant - реализация Assistant поверх OpenAI-совместимого API
type OpenAIAssistant struct {
	client *openai.Client
	model  string
	logger *logrus.Logger
}

func NewOpenAIAssistant(cfg OpenAIConfig) *OpenAIAssistant {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIAssistant{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logrus.New(),
	}
}

func (a *OpenAIAssistant) IsAbsenceRelated(ctx context.Context, message string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0,
		MaxTokens:   5,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return false, fmt.Errorf("classify request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, errors.New("empty response from model")
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	return answer == "yes", nil
}

// extractionWire - формат JSON-ответа модели при извлечении
type extractionWire struct {
	StartAt      string `json:"start_at"`
	EndAt        string `json:"end_at"`
	Duration     string `json:"duration"`
	Reason       string `json:"reason"`
	Type         string `json:"type"`
	OriginalText string `json:"original_text"`
}

func (a *OpenAIAssistant) ExtractLeave(ctx context.Context, message, localTime string) (*Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(extractSystemPrompt, localTime)},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from model")
	}

	var wire extractionWire
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}

	startAt, err := parseModelTime(wire.StartAt)
	if err != nil {
		return nil, fmt.Errorf("parse start_at: %w", err)
	}
	endAt, err := parseModelTime(wire.EndAt)
	if err != nil {
		return nil, fmt.Errorf("parse end_at: %w", err)
	}

	extraction := &Extraction{
		StartAt:      startAt,
		EndAt:        endAt,
		Duration:     wire.Duration,
		Reason:       wire.Reason,
		Type:         wire.Type,
		OriginalText: wire.OriginalText,
	}
	// Модель обязана вернуть исходный текст без изменений, но
	// страхуемся на случай, если она его опустила
	if extraction.OriginalText == "" {
		extraction.OriginalText = message
	}

	return extraction, nil
}

func (a *OpenAIAssistant) QueryToSQL(ctx context.Context, question, localTime string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(queryToSQLSystemPrompt, localTime)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("query generation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}

	return stripFences(resp.Choices[0].Message.Content), nil
}

// parseModelTime парсит время из ответа модели: RFC3339 либо
// локальный ISO-формат без смещения (трактуется как IST)
func parseModelTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, officetime.IST)
}

// stripFences убирает markdown-ограждения, которые модель иногда
// добавляет вокруг SQL несмотря на инструкцию
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```sql")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
