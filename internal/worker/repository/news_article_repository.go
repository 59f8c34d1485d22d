package repository

import (
	"context"

	"liirat-news/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewsArticleRepository defines the interface for storing ingested news.
type NewsArticleRepository interface {
	ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) error
}

// NewNewsArticleRepository creates a new instance of NewsArticleRepository.
func NewNewsArticleRepository(db *gorm.DB) NewsArticleRepository {
	return &newsArticleRepository{db: db}
}

type newsArticleRepository struct {
	db *gorm.DB
}

func (r *newsArticleRepository) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(hashes) == 0 {
		return existing, nil
	}
	var found []string
	err := r.db.WithContext(ctx).Model(&entity.NewsArticle{}).
		Where("hash_identifier IN ?", hashes).
		Pluck("hash_identifier", &found).Error
	if err != nil {
		return nil, err
	}
	for _, h := range found {
		existing[h] = true
	}
	return existing, nil
}

// CreateIgnoreConflict inserts the article unless its link or hash already exists.
func (r *newsArticleRepository) CreateIgnoreConflict(ctx context.Context, article *entity.NewsArticle) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(article).Error
}
