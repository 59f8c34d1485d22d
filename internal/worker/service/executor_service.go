package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"liirat-news/internal/entity"
	"liirat-news/internal/worker/repository"
	"liirat-news/internal/worker/strategy"
	"liirat-news/pkg/logger"
	"liirat-news/pkg/telegram"

	"gorm.io/datatypes"
)

// ExecutorService runs a single job and records the run.
type ExecutorService interface {
	Execute(ctx context.Context, job *entity.Job) *entity.TaskExecutionHistory
}

// NewExecutorService creates a new ExecutorService.
func NewExecutorService(
	historyRepo repository.TaskExecutionHistoryRepository,
	notifier telegram.Notifier,
	log *logger.Logger,
	strategies []strategy.JobExecutionStrategy,
) ExecutorService {
	strategyMap := make(map[entity.JobType]strategy.JobExecutionStrategy)
	for _, s := range strategies {
		strategyMap[s.GetType()] = s
	}

	return &executorService{
		historyRepo:        historyRepo,
		notifier:           notifier,
		logger:             log,
		executorStrategies: strategyMap,
		now:                time.Now,
	}
}

type executorService struct {
	historyRepo        repository.TaskExecutionHistoryRepository
	notifier           telegram.Notifier
	logger             *logger.Logger
	executorStrategies map[entity.JobType]strategy.JobExecutionStrategy
	now                func() time.Time
}

// Execute records a running history row, runs the job's strategy under its timeout and stores the outcome.
func (s *executorService) Execute(ctx context.Context, job *entity.Job) *entity.TaskExecutionHistory {
	history := &entity.TaskExecutionHistory{
		JobName:   job.Name,
		JobType:   job.Type,
		Status:    entity.StatusRunning,
		StartedAt: s.now(),
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		s.logger.Error("Failed to create task history", logger.ErrorField(err), logger.StringField("job", job.Name))
	}

	s.logger.Info("Processing job", logger.StringField("job", job.Name), logger.IntField("history_id", int(history.ID)))

	executionCtx := ctx
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		executionCtx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	strat, ok := s.executorStrategies[job.Type]
	if !ok {
		err := fmt.Errorf("no executor strategy found for task type: %s", job.Type)
		s.fail(history, err)
	} else {
		output, err := strat.Execute(executionCtx, job)
		if err != nil {
			if errors.Is(executionCtx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("job timed out after %s: %w", job.Timeout, err)
			}
			s.fail(history, err)
		} else {
			s.logger.Info("Job executed successfully", logger.StringField("job", job.Name), logger.IntField("history_id", int(history.ID)))
			history.Status = entity.StatusCompleted
		}
		history.Output = toJSON(output)
	}

	history.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}

	// the run context may already be cancelled on shutdown; the record must still land
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	s.save(saveCtx, history)

	if history.Status == entity.StatusFailed {
		if err := s.notifier.SendMessage(telegram.FormatJobFailure(history)); err != nil && !errors.Is(err, telegram.ErrNotConfigured) {
			s.logger.Warn("Failed to send job failure notification", logger.ErrorField(err))
		}
	}
	s.logger.Info("Job execution completed", logger.StringField("job", job.Name), logger.StringField("status", string(history.Status)))
	return history
}

// save updates the running row, or inserts the finished run when the initial insert failed.
func (s *executorService) save(ctx context.Context, history *entity.TaskExecutionHistory) {
	if history.ID == 0 {
		if err := s.historyRepo.Create(ctx, history); err != nil {
			s.logger.Error("Failed to create task history", logger.ErrorField(err), logger.StringField("job", history.JobName))
		}
		return
	}
	if err := s.historyRepo.Update(ctx, history); err != nil {
		s.logger.Error("Failed to update task history", logger.ErrorField(err), logger.IntField("history_id", int(history.ID)))
	}
}

func (s *executorService) fail(history *entity.TaskExecutionHistory, err error) {
	s.logger.Error("Job execution failed", logger.ErrorField(err), logger.StringField("job", history.JobName), logger.IntField("history_id", int(history.ID)))
	history.Status = entity.StatusFailed
	history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
}

// toJSON keeps valid JSON output as is and wraps anything else as a JSON string.
func toJSON(output string) datatypes.JSON {
	if output == "" {
		return nil
	}
	if json.Valid([]byte(output)) {
		return datatypes.JSON(output)
	}
	b, _ := json.Marshal(output)
	return datatypes.JSON(b)
}
