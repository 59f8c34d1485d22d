package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceQuote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name,omitempty"`
	Price         decimal.Decimal `json:"price" swaggertype:"string"`
	Change        decimal.Decimal `json:"change" swaggertype:"string"`
	ChangePercent decimal.Decimal `json:"change_percent" swaggertype:"string"`
}

// PriceTickerResponse flags sample data with Fallback and old data with Stale.
type PriceTickerResponse struct {
	Prices     []PriceQuote `json:"prices"`
	UpdatedAt  *time.Time   `json:"updated_at,omitempty"`
	Stale      bool         `json:"stale"`
	Fallback   bool         `json:"fallback"`
	StaleSince *time.Time   `json:"stale_since,omitempty"`
	Error      string       `json:"error,omitempty"`
}
