package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Importance levels of an economic event.
const (
	ImportanceLow    = 1
	ImportanceMedium = 2
	ImportanceHigh   = 3
)

// Event is a scheduled economic release.
type Event struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	EventTime    time.Time      `gorm:"not null" json:"event_time"`
	Country      string         `json:"country"`
	Currency     string         `json:"currency"`
	Importance   int            `gorm:"not null" json:"importance"`
	Category     string         `json:"category"`
	ActualValue  *string        `json:"actual_value,omitempty"`
	Forecast     *string        `json:"forecast,omitempty"`
	Previous     *string        `json:"previous,omitempty"`
	Analysis     string         `json:"analysis,omitempty"`
	AnalysisDate *time.Time     `json:"analysis_date,omitempty"`
	Source       string         `json:"source,omitempty"`
	ExternalID   *string        `gorm:"unique" json:"external_id,omitempty"`
	Raw          datatypes.JSON `json:"-"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// ImportanceLabel maps 3/2/1 to high/medium/low.
func ImportanceLabel(importance int) string {
	switch importance {
	case ImportanceHigh:
		return "high"
	case ImportanceMedium:
		return "medium"
	case ImportanceLow:
		return "low"
	default:
		return "unknown"
	}
}
