package repository

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"liirat-news/internal/api/dto"
	"liirat-news/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAIStub(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func TestOpenAIRepository_TranslateRequestShape(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAIStub(t, "  مؤشر أسعار المستهلك \n", &captured)
	defer srv.Close()

	repo := NewOpenAIRepository(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "gpt-4o-mini", MaxTokens: 120}, logger.NewNop())
	out, err := repo.Translate(context.Background(), "CPI y/y", "ar")

	require.NoError(t, err)
	assert.Equal(t, "مؤشر أسعار المستهلك", out)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 120, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "Translate preserving financial terms. Return only the translated string.", captured.Messages[0].Content)
	assert.Equal(t, "Translate to ar: CPI y/y", captured.Messages[1].Content)
}

func TestOpenAIRepository_EmptyTranslationIsError(t *testing.T) {
	srv := newOpenAIStub(t, "   ", nil)
	defer srv.Close()

	repo := NewOpenAIRepository(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL}, logger.NewNop())
	_, err := repo.Translate(context.Background(), "GDP", "ar")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOpenAIRepository_MissingKey(t *testing.T) {
	repo := NewOpenAIRepository(OpenAIConfig{}, logger.NewNop())
	_, err := repo.Translate(context.Background(), "GDP", "ar")
	assert.ErrorIs(t, err, ErrMissingOpenAIKey)

	_, err = repo.Chat(context.Background(), "ar", nil, "hi")
	assert.ErrorIs(t, err, ErrMissingOpenAIKey)
}

func TestOpenAIRepository_ChatForwardsHistory(t *testing.T) {
	var captured capturedRequest
	srv := newOpenAIStub(t, "The Fed meets on Wednesday.", &captured)
	defer srv.Close()

	repo := NewOpenAIRepository(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL}, logger.NewNop())
	history := []dto.ChatMessage{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}}
	out, err := repo.Chat(context.Background(), "en", history, "When is FOMC?")

	require.NoError(t, err)
	assert.Equal(t, "The Fed meets on Wednesday.", out)
	require.Len(t, captured.Messages, 4)
	assert.Contains(t, captured.Messages[0].Content, "English")
	assert.Equal(t, "assistant", captured.Messages[2].Role)
	assert.Equal(t, "When is FOMC?", captured.Messages[3].Content)
}
