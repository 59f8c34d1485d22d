package entity

import (
	"database/sql"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// JobType identifies which strategy runs a job.
type JobType string

const (
	JobTypePriceRefresh JobType = "price_refresh"
	JobTypeCalendarSync JobType = "calendar_sync"
	JobTypeNewsIngest   JobType = "news_ingest"
)

// Job is a recurring background task declared in the worker config.
type Job struct {
	Name           string          `json:"name" mapstructure:"name"`
	Type           JobType         `json:"type" mapstructure:"type"`
	CronExpression string          `json:"cron_expression" mapstructure:"cron"`
	Timeout        time.Duration   `json:"timeout" mapstructure:"timeout"`
	Payload        json.RawMessage `json:"payload" mapstructure:"-"`
	RawPayload     map[string]any  `json:"-" mapstructure:"payload"`
}

// PayloadBytes returns the JSON payload, marshalling the config map on first use.
func (j *Job) PayloadBytes() []byte {
	if len(j.Payload) == 0 && j.RawPayload != nil {
		if b, err := json.Marshal(j.RawPayload); err == nil {
			j.Payload = b
		}
	}
	if len(j.Payload) == 0 {
		return []byte("{}")
	}
	return j.Payload
}

type TaskStatus string

const (
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
)

// TaskExecutionHistory records one run of a job.
type TaskExecutionHistory struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	JobName      string         `gorm:"not null;index" json:"job_name"`
	JobType      JobType        `gorm:"not null" json:"job_type"`
	Status       TaskStatus     `gorm:"not null" json:"status"`
	StartedAt    time.Time      `gorm:"not null" json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	Output       datatypes.JSON `json:"output"`
	ErrorMessage sql.NullString `json:"error_message"`
}

func (TaskExecutionHistory) TableName() string {
	return "task_execution_histories"
}
