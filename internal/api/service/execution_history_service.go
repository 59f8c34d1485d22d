package service

import (
	"context"
	"encoding/json"
	"errors"

	"liirat-news/internal/api/dto"
	"liirat-news/internal/api/repository"
	"liirat-news/internal/entity"
	"liirat-news/pkg/logger"
)

const defaultHistoryLimit = 50

// ExecutionHistoryService defines the interface for reading worker execution history.
type ExecutionHistoryService interface {
	GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error)
	GetExecutionHistories(ctx context.Context, jobName string, limit int) ([]*dto.ExecutionHistoryResponse, error)
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(historyRepo repository.TaskExecutionHistoryRepository, logger *logger.Logger) ExecutionHistoryService {
	return &executionHistoryService{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

type executionHistoryService struct {
	historyRepo repository.TaskExecutionHistoryRepository
	logger      *logger.Logger
}

// GetExecutionHistoryByID retrieves an execution history record by its ID.
func (s *executionHistoryService) GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	history, err := s.historyRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to find execution history", logger.ErrorField(err), logger.Field("history_id", id))
		return nil, err
	}
	return s.mapToExecutionHistoryResponse(history), nil
}

// GetExecutionHistories retrieves the latest records, optionally for one job.
func (s *executionHistoryService) GetExecutionHistories(ctx context.Context, jobName string, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	var (
		histories []entity.TaskExecutionHistory
		err       error
	)
	if jobName != "" {
		histories, err = s.historyRepo.FindAllByJobName(ctx, jobName, limit)
	} else {
		histories, err = s.historyRepo.FindAll(ctx, limit)
	}
	if err != nil {
		s.logger.Error("Failed to get execution histories", logger.ErrorField(err), logger.StringField("job_name", jobName))
		return nil, err
	}

	historyResponses := make([]*dto.ExecutionHistoryResponse, 0, len(histories))
	for i := range histories {
		historyResponses = append(historyResponses, s.mapToExecutionHistoryResponse(&histories[i]))
	}
	return historyResponses, nil
}

// mapToExecutionHistoryResponse maps an entity.TaskExecutionHistory to a dto.ExecutionHistoryResponse.
func (s *executionHistoryService) mapToExecutionHistoryResponse(history *entity.TaskExecutionHistory) *dto.ExecutionHistoryResponse {
	var duration int64
	if history.CompletedAt.Valid {
		duration = history.CompletedAt.Time.Sub(history.StartedAt).Milliseconds()
	}

	resp := &dto.ExecutionHistoryResponse{
		ID:         history.ID,
		JobName:    history.JobName,
		JobType:    string(history.JobType),
		Status:     string(history.Status),
		ExecutedAt: history.StartedAt,
		Duration:   duration,
		Error:      history.ErrorMessage.String,
	}
	if len(history.Output) > 0 {
		resp.Output = json.RawMessage(history.Output)
	}
	return resp
}
