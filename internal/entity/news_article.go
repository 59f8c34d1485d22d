package entity

import (
	"time"

	"github.com/lib/pq"
)

// NewsArticle is a market news item pulled from an RSS feed.
type NewsArticle struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Link           string         `gorm:"unique;not null" json:"link"`
	Source         string         `json:"source"`
	Summary        string         `json:"summary"`
	Content        string         `json:"content,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	HashIdentifier string         `gorm:"unique;not null" json:"hash_identifier"`
	Keywords       pq.StringArray `gorm:"type:text[]" json:"keywords"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (NewsArticle) TableName() string {
	return "news_articles"
}
