package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SetAlertRequest creates or updates the caller's alert for an event.
type SetAlertRequest struct {
	EventID         uint   `json:"event_id"`
	AlertType       string `json:"alert_type"`
	LeadTimeMinutes int    `json:"lead_time_minutes"`
	Channel         string `json:"channel"`
}

// PriceAlertRequest creates an alert on an asset price level.
type PriceAlertRequest struct {
	AssetID     uint                `json:"asset_id"`
	TargetPrice decimal.NullDecimal `json:"target_price" swaggertype:"string"`
	AlertType   string              `json:"alert_type"`
	Channels    []string            `json:"channels"`
}

type AlertResponse struct {
	ID                   uint                `json:"id"`
	EventID              *uint               `json:"event_id,omitempty"`
	EventTitle           string              `json:"event_title,omitempty"`
	AssetID              *uint               `json:"asset_id,omitempty"`
	AssetSymbol          string              `json:"asset_symbol,omitempty"`
	TargetPrice          decimal.NullDecimal `json:"target_price" swaggertype:"string"`
	AlertType            string              `json:"alert_type"`
	LeadTimeMinutes      int                 `json:"lead_time_minutes"`
	NotificationChannels []string            `json:"notification_channels"`
	IsActive             bool                `json:"is_active"`
	CreatedAt            time.Time           `json:"created_at"`
}

type AlertListResponse struct {
	Alerts  []AlertResponse `json:"alerts"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}

// SetAlertResponse returns the saved alert and the refreshed event lookup.
type SetAlertResponse struct {
	Alert         AlertResponse          `json:"alert"`
	AlertsByEvent map[uint]AlertResponse `json:"alerts_by_event"`
}

type AssetResponse struct {
	ID             uint                `json:"id"`
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name"`
	Category       string              `json:"category,omitempty"`
	LatestPrice    decimal.NullDecimal `json:"latest_price" swaggertype:"string"`
	ChangePercent  decimal.NullDecimal `json:"change_percent" swaggertype:"string"`
	PriceUpdatedAt *time.Time          `json:"price_updated_at,omitempty"`
}
