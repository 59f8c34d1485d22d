package dto

import "time"

type ToggleWatchlistRequest struct {
	EventID uint `json:"event_id"`
}

type ToggleWatchlistResponse struct {
	Added     bool   `json:"added"`
	Watchlist []uint `json:"watchlist"`
}

// WatchlistItemResponse resolves a watchlist row to its event or asset.
// Available is false when the referenced record no longer exists.
type WatchlistItemResponse struct {
	ID        uint           `json:"id"`
	ItemType  string         `json:"item_type"`
	Available bool           `json:"available"`
	Event     *EventResponse `json:"event,omitempty"`
	Asset     *AssetResponse `json:"asset,omitempty"`
	AddedAt   time.Time      `json:"added_at"`
}
