package entity

import "time"

type ItemType string

const (
	ItemTypeEvent ItemType = "event"
	ItemTypeAsset ItemType = "asset"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeEvent || t == ItemTypeAsset
}

// WatchlistItem marks an event or asset as followed by a user.
// Exactly one of EventID and AssetID is set, matching ItemType.
type WatchlistItem struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   string    `gorm:"not null;index" json:"user_id"`
	ItemType ItemType  `gorm:"not null" json:"item_type"`
	EventID  *uint     `json:"event_id,omitempty"`
	AssetID  *uint     `json:"asset_id,omitempty"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}
