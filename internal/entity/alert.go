package entity

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertTypeCrossesAbove  AlertType = "crossesAbove"
	AlertTypeCrossesBelow  AlertType = "crossesBelow"
	AlertTypeOnRelease     AlertType = "onRelease"
	AlertTypeBeforeRelease AlertType = "beforeRelease"
)

// Valid reports whether t is one of the known alert types.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeCrossesAbove, AlertTypeCrossesBelow, AlertTypeOnRelease, AlertTypeBeforeRelease:
		return true
	}
	return false
}

// IsPrice reports whether the alert type applies to an asset price.
func (t AlertType) IsPrice() bool {
	return t == AlertTypeCrossesAbove || t == AlertTypeCrossesBelow
}

const (
	ChannelEmail    = "email"
	ChannelPush     = "push"
	ChannelWhatsApp = "whatsapp"
)

// ValidChannel reports whether c is a supported notification channel.
func ValidChannel(c string) bool {
	return c == ChannelEmail || c == ChannelPush || c == ChannelWhatsApp
}

// Alert is a user's subscription to an event release or an asset price level.
type Alert struct {
	ID                   uint                `gorm:"primaryKey" json:"id"`
	UserID               string              `gorm:"not null;index" json:"user_id"`
	EventID              *uint               `json:"event_id,omitempty"`
	AssetID              *uint               `json:"asset_id,omitempty"`
	TargetPrice          decimal.NullDecimal `gorm:"type:numeric" json:"target_price"`
	AlertType            AlertType           `gorm:"not null" json:"alert_type"`
	LeadTimeMinutes      int                 `json:"lead_time_minutes"`
	NotificationChannels pq.StringArray      `gorm:"type:text[]" json:"notification_channels"`
	IsActive             bool                `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Alert) TableName() string {
	return "alerts"
}
