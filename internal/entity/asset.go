package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a tradeable instrument shown in the ticker and used by price alerts.
type Asset struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	Symbol         string              `gorm:"unique;not null" json:"symbol"`
	Name           string              `json:"name"`
	Category       string              `json:"category,omitempty"`
	LatestPrice    decimal.NullDecimal `gorm:"type:numeric" json:"latest_price"`
	ChangePercent  decimal.NullDecimal `gorm:"type:numeric" json:"change_percent"`
	PriceUpdatedAt *time.Time          `json:"price_updated_at,omitempty"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

func (Asset) TableName() string {
	return "assets"
}
