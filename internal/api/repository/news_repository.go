package repository

import (
	"context"

	"liirat-news/internal/entity"

	"gorm.io/gorm"
)

// NewsArticleRepository reads ingested news.
type NewsArticleRepository interface {
	Latest(ctx context.Context, limit int) ([]entity.NewsArticle, error)
}

func NewNewsArticleRepository(db *gorm.DB) NewsArticleRepository {
	return &newsArticleRepository{db: db}
}

type newsArticleRepository struct {
	db *gorm.DB
}

func (r *newsArticleRepository) Latest(ctx context.Context, limit int) ([]entity.NewsArticle, error) {
	var items []entity.NewsArticle
	err := r.db.WithContext(ctx).
		Omit("content").
		Order("published_at desc nulls last, id desc").
		Limit(limit).
		Find(&items).Error
	return items, err
}
