package dto

import (
	"encoding/json"
	"time"
)

// ExecutionHistoryResponse is the DTO for API responses containing execution history details.
type ExecutionHistoryResponse struct {
	ID         uint            `json:"id"`
	JobName    string          `json:"job_name"`
	JobType    string          `json:"job_type"`
	Status     string          `json:"status"`
	ExecutedAt time.Time       `json:"executed_at"`
	Duration   int64           `json:"duration_ms"`
	Output     json.RawMessage `json:"output,omitempty" swaggertype:"object"`
	Error      string          `json:"error,omitempty"`
}
