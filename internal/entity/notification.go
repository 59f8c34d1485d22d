package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    string         `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"not null" json:"type"`
	Message   string         `gorm:"not null" json:"message"`
	IsRead    bool           `gorm:"not null;default:false" json:"is_read"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
