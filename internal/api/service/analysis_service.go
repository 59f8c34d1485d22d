package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/pkg/common"
	"liirat-news/pkg/logger"
)

// AnalysisService attaches a generated analysis to an event.
type AnalysisService interface {
	AnalyzeEvent(ctx context.Context, eventID uint, req dto.AnalysisRequest) (*dto.EventResponse, error)
}

func NewAnalysisService(events repository.Gateway[entity.Event], analyzer repository.EventAnalysisRepository, locks *KeyedMutex, log *logger.Logger) AnalysisService {
	return &analysisService{events: events, analyzer: analyzer, locks: locks, logger: log, now: time.Now}
}

type analysisService struct {
	events   repository.Gateway[entity.Event]
	analyzer repository.EventAnalysisRepository
	locks    *KeyedMutex
	logger   *logger.Logger
	now      func() time.Time
}

// AnalyzeEvent returns the stored analysis unless it is missing or Force is set.
func (s *analysisService) AnalyzeEvent(ctx context.Context, eventID uint, req dto.AnalysisRequest) (*dto.EventResponse, error) {
	unlock := s.locks.Lock(fmt.Sprintf("analysis:%d", eventID))
	defer unlock()

	event, err := s.events.Get(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event.Analysis != "" && !req.Force {
		resp := mapToEventResponse(event)
		return &resp, nil
	}

	language := req.Language
	if language == "" {
		language = common.DefaultLanguage
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = common.DefaultTimezone
	}

	analysis, err := s.analyzer.AnalyzeEvent(ctx, event, language, timezone)
	if err != nil {
		return nil, err
	}

	updated, err := s.events.Update(ctx, eventID, map[string]any{
		"analysis":      analysis,
		"analysis_date": s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to store analysis", logger.ErrorField(err), logger.Field("event_id", eventID))
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}
	resp := mapToEventResponse(updated)
	return &resp, nil
}
