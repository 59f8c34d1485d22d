package strategy

import (
	"context"

	"liirat-news/internal/entity"
)

const (
	SUCCESS = "success"
	FAILED  = "failed"
	PARTIAL = "partial"
	SKIPPED = "skipped"
)

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}
