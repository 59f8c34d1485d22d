package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"liirat-news/internal/api/dto"
	"liirat-news/pkg/logger"

	"github.com/sashabaranov/go-openai"
)

const (
	translateSystemPrompt = "Translate preserving financial terms. Return only the translated string."
	chatSystemPrompt      = "You are Liirat's financial markets assistant. Answer questions about economic events, currencies, commodities and market news concisely. Do not give personalised investment advice. Reply in %s."
)

var (
	ErrMissingOpenAIKey = errors.New("Missing OPENAI_API_KEY")
	ErrEmptyCompletion  = errors.New("Empty translation")
)

// TranslationRepository translates short texts.
type TranslationRepository interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

// ChatRepository answers assistant questions given prior turns.
type ChatRepository interface {
	Chat(ctx context.Context, language string, history []dto.ChatMessage, message string) (string, error)
}

// OpenAIConfig holds what the OpenAI repository needs.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAIRepository implements TranslationRepository and ChatRepository.
type OpenAIRepository struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger *logger.Logger
}

// NewOpenAIRepository creates a repository backed by the chat completions API.
// An empty APIKey yields a repository whose calls fail with ErrMissingOpenAIKey.
func NewOpenAIRepository(cfg OpenAIConfig, log *logger.Logger) *OpenAIRepository {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 120
	}
	return &OpenAIRepository{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: log,
	}
}

func (r *OpenAIRepository) Translate(ctx context.Context, text, lang string) (string, error) {
	if r.cfg.APIKey == "" {
		return "", ErrMissingOpenAIKey
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translateSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Translate to %s: %s", lang, text)},
		},
		MaxTokens: r.cfg.MaxTokens,
	})
	if err != nil {
		r.logger.Error("OpenAI translation failed", logger.ErrorField(err), logger.StringField("lang", lang))
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

func (r *OpenAIRepository) Chat(ctx context.Context, language string, history []dto.ChatMessage, message string) (string, error) {
	if r.cfg.APIKey == "" {
		return "", ErrMissingOpenAIKey
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(chatSystemPrompt, languageName(language))},
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     r.cfg.Model,
		Messages:  messages,
		MaxTokens: 800,
	})
	if err != nil {
		r.logger.Error("OpenAI chat failed", logger.ErrorField(err))
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no response from openai")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func languageName(code string) string {
	switch code {
	case "en":
		return "English"
	case "fr":
		return "French"
	default:
		return "Arabic"
	}
}
