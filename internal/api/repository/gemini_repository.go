package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

var ErrAnalysisUnavailable = errors.New("analysis provider is not configured")

// EventAnalysisRepository produces a written analysis for an event.
type EventAnalysisRepository interface {
	AnalyzeEvent(ctx context.Context, event *entity.Event, language, timezone string) (string, error)
}

type geminiRepository struct {
	client         *genai.Client
	model          string
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

// NewGeminiRepository creates an analysis repository. A nil client makes every call fail with ErrAnalysisUnavailable.
func NewGeminiRepository(client *genai.Client, model string, maxRequestPerMinute int, log *logger.Logger) EventAnalysisRepository {
	if maxRequestPerMinute <= 0 {
		maxRequestPerMinute = 10
	}
	return &geminiRepository{
		client:         client,
		model:          model,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxRequestPerMinute)), 1),
	}
}

func (r *geminiRepository) AnalyzeEvent(ctx context.Context, event *entity.Event, language, timezone string) (string, error) {
	if r.client == nil {
		return "", ErrAnalysisUnavailable
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := BuildEventAnalysisPrompt(event, language, timezone)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := r.client.Models.GenerateContent(ctx, r.model, contents, nil)
	if err != nil {
		r.logger.Error("Gemini analysis failed", logger.ErrorField(err), logger.Field("event_id", event.ID))
		return "", fmt.Errorf("failed to generate analysis: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content found in Gemini response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no content found in Gemini response")
	}
	return text, nil
}
